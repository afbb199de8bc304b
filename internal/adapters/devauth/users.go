package devauth

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	domainauth "github.com/target/recon-console/internal/domain/auth"
)

// User is one entry of the dev users file.
//
//	users:
//	  - username: alice
//	    name: Alice Preparer
//	    email: alice@example.com
//	    password_hash: $2a$10$...
//	    groups: [recon-preparers]
type User struct {
	Username     string   `yaml:"username"`
	Name         string   `yaml:"name"`
	Email        string   `yaml:"email"`
	PasswordHash string   `yaml:"password_hash"`
	Groups       []string `yaml:"groups"`
}

// Identity converts the entry to a domain identity without token or expiry.
func (u User) Identity() domainauth.Identity {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	return domainauth.Identity{
		UserID:      u.Username,
		DisplayName: name,
		Email:       u.Email,
		Groups:      append([]string(nil), u.Groups...),
	}
}

// Users is an immutable username-indexed set loaded from YAML.
type Users struct {
	byName map[string]User
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// LoadUsers reads a users file from disk.
func LoadUsers(path string) (*Users, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return ParseUsers(data)
}

// ParseUsers decodes YAML user entries, rejecting unknown keys, duplicates and missing hashes.
func ParseUsers(data []byte) (*Users, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f usersFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, errors.New("users file defines no users")
	}

	byName := make(map[string]User, len(f.Users))
	for i, u := range f.Users {
		u.Username = strings.TrimSpace(u.Username)
		if u.Username == "" {
			return nil, fmt.Errorf("users[%d]: username is required", i)
		}
		if u.PasswordHash == "" {
			return nil, fmt.Errorf("user %q: password_hash is required", u.Username)
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return nil, fmt.Errorf("user %q: password_hash is not a bcrypt hash", u.Username)
		}
		key := strings.ToLower(u.Username)
		if _, dup := byName[key]; dup {
			return nil, fmt.Errorf("user %q: defined more than once", u.Username)
		}
		byName[key] = u
	}
	return &Users{byName: byName}, nil
}

// Len returns the number of users.
func (u *Users) Len() int { return len(u.byName) }

// Check returns the user when the password matches its hash. Usernames are case-insensitive.
func (u *Users) Check(username, password string) (User, bool) {
	entry, ok := u.byName[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		// Unknown users pay for a comparison too.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return User{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(entry.PasswordHash), []byte(password)) != nil {
		return User{}, false
	}
	return entry, true
}

// HashPassword produces a bcrypt hash suitable for the users file.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("dev-auth"), bcrypt.DefaultCost)
	return h
})
