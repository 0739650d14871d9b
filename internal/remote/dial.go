package remote

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/containerd/log"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const (
	defaultRemotePath = "."
	defaultPort       = 22
	defaultTimeout    = 15 * time.Second
)

// Config configures an SFTP connection.
type Config struct {
	// Target is user@host or user@host:port.
	Target string
	// Port is used when Target carries none. Zero means 22.
	Port int
	// BatchMode disables every interactive prompt: unknown host keys are
	// rejected and password authentication is not offered.
	BatchMode bool
	// Timeout bounds the TCP dial and SSH handshake.
	Timeout time.Duration
}

var dialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

var sshNewClientConn = func(conn net.Conn, addr string, config *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
	return ssh.NewClientConn(conn, addr, config)
}

// Dial connects to cfg.Target and starts the SFTP subsystem. The returned FS
// must be closed by the caller.
func Dial(ctx context.Context, cfg Config) (*FS, error) {
	user, host, port, err := parseSSHTarget(cfg.Target)
	if err != nil {
		return nil, err
	}
	if port == 0 {
		port = cfg.Port
	}
	if port == 0 {
		port = defaultPort
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("ssh port must be between 1 and 65535")
	}

	hostCB, err := hostKeyCallback(host, port, cfg.BatchMode)
	if err != nil {
		return nil, err
	}
	auth, err := buildAuthMethods(user, host, cfg.BatchMode)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	sshClient, err := connectSSH(dialCtx, addr, &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: hostCB,
		Timeout:         timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("cannot start SFTP subsystem: %w", err)
	}
	log.G(ctx).WithField("addr", addr).WithField("user", user).Info("sftp session established")

	return newFS(client, func() error {
		err := client.Close()
		if cerr := sshClient.Close(); err == nil {
			err = cerr
		}
		return err
	}), nil
}

func connectSSH(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	conn, err := dialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// Ensure cancellation interrupts handshake/authentication.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	c, chans, reqs, err := sshNewClientConn(conn, addr, config)
	close(done)
	if err != nil {
		_ = conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}
