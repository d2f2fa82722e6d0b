package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/rs/zerolog/log"
	gossh "golang.org/x/crypto/ssh"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/config"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

var ErrNoAuthorizedKeys = errors.New("ssh server needs at least one authorized key")

type Server struct {
	srv  *ssh.Server
	keys []ssh.PublicKey
}

// ParseAuthorizedKeys reads keys in authorized_keys format.
func ParseAuthorizedKeys(lines []string) ([]ssh.PublicKey, error) {
	keys := make([]ssh.PublicKey, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, _, _, _, err := gossh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("authorized key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func authorized(keys []ssh.PublicKey, key ssh.PublicKey) bool {
	for _, k := range keys {
		if ssh.KeysEqual(k, key) {
			return true
		}
	}
	return false
}

func sessionLogger() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			log.Debug().Str("user", sess.User()).Str("addr", sess.RemoteAddr().String()).Msg("ssh session opened")
			next(sess)
			log.Debug().Str("user", sess.User()).Str("addr", sess.RemoteAddr().String()).Msg("ssh session closed")
		}
	}
}

// NewServer builds the dashboard ssh server. Only the configured keys may log in.
func NewServer(cfg config.SSHConfig, s *store.Store, logFileName string) (*Server, error) {
	keys, err := ParseAuthorizedKeys(cfg.AuthorizedPubKeys)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrNoAuthorizedKeys
	}

	server := &Server{keys: keys}

	srv, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort("0.0.0.0", strconv.Itoa(cfg.Port))),
		wish.WithHostKeyPath(cfg.HostKeyFile),
		wish.WithPublicKeyAuth(func(_ ssh.Context, key ssh.PublicKey) bool {
			return authorized(server.keys, key)
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(MakeTeaHandler(s, logFileName)),
			activeterm.Middleware(),
			sessionLogger(),
		),
	)
	if err != nil {
		return nil, err
	}
	server.srv = srv

	return server, nil
}

func (s *Server) Addr() string {
	return s.srv.Addr
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.srv.Addr).Msg("SSH dashboard now listening")
	err := s.srv.ListenAndServe()
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
