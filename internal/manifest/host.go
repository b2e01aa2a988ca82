package manifest

import (
	"os"
	"os/user"
	"strings"
)

const (
	unknownUser = "unknown"
	unknownHost = "unknown-host"
)

// Identity is the user and host stamped into created_by and host.
type Identity struct {
	User string
	Host string
}

// CurrentIdentity resolves the invoking user and host from the environment.
func CurrentIdentity() Identity {
	id := Identity{User: unknownUser, Host: unknownHost}
	if u, err := user.Current(); err == nil && strings.TrimSpace(u.Username) != "" {
		id.User = u.Username
	} else if v := firstEnv("USER", "USERNAME"); v != "" {
		id.User = v
	}
	if h, err := os.Hostname(); err == nil && strings.TrimSpace(h) != "" {
		id.Host = h
	}
	return id
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
