package remote

import (
	"context"
	"errors"
	"io/fs"
	"os"
	pathpkg "path"
	"strings"
	"sync"

	"github.com/pkg/sftp"
)

// SFTP status codes, draft-ietf-secsh-filexfer-02 section 7.
const (
	sshFxNoSuchFile       = 2
	sshFxPermissionDenied = 3
)

// sftpClient is the subset of *sftp.Client the filesystem needs.
type sftpClient interface {
	ReadDir(string) ([]os.FileInfo, error)
	Stat(string) (os.FileInfo, error)
	Lstat(string) (os.FileInfo, error)
	RealPath(string) (string, error)
	ReadLink(string) (string, error)
}

// FS exposes a remote host's filesystem over SFTP with POSIX path semantics.
// It is safe for concurrent use; requests are pipelined over one session.
type FS struct {
	client sftpClient
	closer func() error

	cwdOnce sync.Once
	cwd     string
	cwdErr  error
}

func newFS(client sftpClient, closer func() error) *FS {
	return &FS{client: client, closer: closer}
}

// Close tears down the SFTP session and the SSH connection under it.
func (f *FS) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer()
}

func (f *FS) ReadDir(ctx context.Context, name string) ([]fs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := readRemoteDir(ctx, f.client, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, pathError("open", name, err)
	}
	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		if info.Name() == "." || info.Name() == ".." {
			continue
		}
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	return entries, nil
}

func (f *FS) Lstat(name string) (fs.FileInfo, error) {
	info, err := f.client.Lstat(name)
	if err != nil {
		return nil, pathError("lstat", name, err)
	}
	return info, nil
}

func (f *FS) Stat(name string) (fs.FileInfo, error) {
	info, err := f.client.Stat(name)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return info, nil
}

// Abs joins relative names onto the session's working directory, which is
// the login user's home on most servers. ".." is left for the server's
// realpath to resolve after symlinks.
func (f *FS) Abs(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if pathpkg.IsAbs(name) {
		return name, nil
	}
	f.cwdOnce.Do(func() {
		f.cwd, f.cwdErr = f.client.RealPath(".")
	})
	if f.cwdErr != nil {
		return "", pathError("realpath", ".", f.cwdErr)
	}
	if name == "" || name == "." {
		return cleanRemotePath(f.cwd), nil
	}
	return strings.TrimSuffix(cleanRemotePath(f.cwd), "/") + "/" + name, nil
}

func (f *FS) EvalSymlinks(name string) (string, error) {
	resolved, err := f.client.RealPath(name)
	if err != nil {
		return "", pathError("realpath", name, err)
	}
	return cleanRemotePath(resolved), nil
}

func (f *FS) Readlink(name string) (string, error) {
	target, err := f.client.ReadLink(name)
	if err != nil {
		return "", pathError("readlink", name, err)
	}
	return target, nil
}

func (f *FS) Join(elem ...string) string {
	return pathpkg.Join(elem...)
}

func readRemoteDir(ctx context.Context, client sftpClient, dirPath string) ([]os.FileInfo, error) {
	if rc, ok := client.(interface {
		ReadDirContext(context.Context, string) ([]os.FileInfo, error)
	}); ok {
		return rc.ReadDirContext(ctx, dirPath)
	}
	return client.ReadDir(dirPath)
}

// pathError maps SFTP status codes onto the io/fs sentinels so callers can
// classify remote failures like local ones.
func pathError(op, name string, err error) error {
	var status *sftp.StatusError
	if errors.As(err, &status) {
		switch status.Code {
		case sshFxNoSuchFile:
			err = fs.ErrNotExist
		case sshFxPermissionDenied:
			err = fs.ErrPermission
		}
	}
	return &fs.PathError{Op: op, Path: name, Err: err}
}

func cleanRemotePath(p string) string {
	if p == "" {
		return defaultRemotePath
	}
	clean := pathpkg.Clean(strings.ReplaceAll(p, "\\", "/"))
	if clean == "" {
		return defaultRemotePath
	}
	return clean
}
