package media

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPStore keeps media on a remote host reachable over SFTP; the remote
// directory is expected to be published at PublicURL by a web server.
type SFTPStore struct {
	addr      string
	config    *ssh.ClientConfig
	dir       string
	publicURL string
}

func NewSFTPStore(addr, user, passwd, dir, publicURL string) *SFTPStore {
	return &SFTPStore{
		addr: addr,
		config: &ssh.ClientConfig{
			User:            user,
			Auth:            []ssh.AuthMethod{ssh.Password(passwd)},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
			Timeout:         10 * time.Second,
		},
		dir:       dir,
		publicURL: publicURL,
	}
}

func (s *SFTPStore) session(fn func(client *sftp.Client) error) error {
	conn, err := ssh.Dial("tcp", s.addr, s.config)
	if err != nil {
		return errors.Wrapf(err, "ssh dial %s", s.addr)
	}
	defer conn.Close()
	client, err := sftp.NewClient(conn)
	if err != nil {
		return errors.Wrap(err, "sftp session")
	}
	defer client.Close()
	return fn(client)
}

func (s *SFTPStore) Upload(ctx context.Context, folder string, up *Upload) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := path.Join(Folder("", folder), uuid.NewString()+up.Ext())
	remote := path.Join(s.dir, rel)
	err := s.session(func(client *sftp.Client) error {
		if err := client.MkdirAll(path.Dir(remote)); err != nil {
			return errors.Wrap(err, "sftp mkdir")
		}
		f, err := client.Create(remote)
		if err != nil {
			return errors.Wrap(err, "sftp create")
		}
		if _, err := f.Write(up.Data); err != nil {
			_ = f.Close()
			return errors.Wrap(err, "sftp write")
		}
		return f.Close()
	})
	if err != nil {
		return nil, err
	}
	return &Asset{URL: joinURL(s.publicURL, rel), PublicID: rel, ResourceType: resourceTypeOf(up)}, nil
}

func (s *SFTPStore) Delete(ctx context.Context, url string) error {
	rel := relFromURL(s.publicURL, url)
	if rel == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.session(func(client *sftp.Client) error {
		err := client.Remove(path.Join(s.dir, rel))
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "sftp remove %s", rel)
		}
		return nil
	})
}
