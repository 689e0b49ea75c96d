package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Node roles.
const (
	RoleLeader   = "leader"
	RoleFollower = "follower"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultWriteQuorum = 2
	DefaultMinDelayMs  = 0
	DefaultMaxDelayMs  = 1000
	DefaultPort        = 8000
)

// Config holds the process-wide node configuration. It is built and
// validated once at startup, then passed by value to the role
// constructors; nothing reads the environment after that.
type Config struct {
	Role          string
	NodeID        string
	Port          int
	FollowerHosts []string
	WriteQuorum   int
	MinDelayMs    int
	MaxDelayMs    int
}

// ParseHosts parses a comma-separated list of follower addresses in the
// format "follower1:8000,follower2:8000". Empty entries are skipped.
func ParseHosts(hostsStr string) []string {
	parts := strings.Split(hostsStr, ",")
	hosts := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		hosts = append(hosts, part)
	}
	return hosts
}

// FromEnv builds a Config from the recognized environment variables
// (ROLE, NODE_ID, FOLLOWER_HOSTS, WRITE_QUORUM, MIN_DELAY, MAX_DELAY,
// PORT), falling back to defaults. Delay bounds are in milliseconds.
func FromEnv() (Config, error) {
	cfg := Config{
		Role:          getenv("ROLE", RoleLeader),
		FollowerHosts: ParseHosts(os.Getenv("FOLLOWER_HOSTS")),
	}
	cfg.NodeID = getenv("NODE_ID", cfg.Role)

	var err error
	if cfg.WriteQuorum, err = getenvInt("WRITE_QUORUM", DefaultWriteQuorum); err != nil {
		return Config{}, err
	}
	if cfg.MinDelayMs, err = getenvInt("MIN_DELAY", DefaultMinDelayMs); err != nil {
		return Config{}, err
	}
	if cfg.MaxDelayMs, err = getenvInt("MAX_DELAY", DefaultMaxDelayMs); err != nil {
		return Config{}, err
	}
	if cfg.Port, err = getenvInt("PORT", DefaultPort); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration once at startup. A write quorum
// larger than the follower set is accepted: writes are then permanently
// unsuccessful, which is the documented behavior rather than an error.
func (c Config) Validate() error {
	if c.Role != RoleLeader && c.Role != RoleFollower {
		return fmt.Errorf("unknown role %q (expected %q or %q)", c.Role, RoleLeader, RoleFollower)
	}
	if c.NodeID == "" {
		return fmt.Errorf("node ID cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.WriteQuorum < 0 {
		return fmt.Errorf("write quorum cannot be negative: %d", c.WriteQuorum)
	}
	if c.MinDelayMs < 0 {
		return fmt.Errorf("min delay cannot be negative: %d", c.MinDelayMs)
	}
	if c.MaxDelayMs < c.MinDelayMs {
		return fmt.Errorf("max delay %d is below min delay %d", c.MaxDelayMs, c.MinDelayMs)
	}
	return nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getenvInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", name, v, err)
	}
	return n, nil
}
