// Package provision bootstraps accounts and sample data outside the request
// path.
package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
	"student-dashboard/internal/identity"
	"student-dashboard/internal/model"
	"student-dashboard/internal/records"
	"student-dashboard/internal/store"
)

const (
	DefaultAdminEmail    = "admin@123.com"
	DefaultAdminPassword = "admin@123"
)

// EnsureAdmin creates the bootstrap account. An account that already exists
// is left untouched and reported as not created.
func EnsureAdmin(ctx context.Context, provider *identity.Provider, email, password string) (bool, error) {
	_, err := provider.CreateUser(ctx, email, password)
	if err == nil {
		return true, nil
	}
	if identity.CodeOf(err) == identity.CodeEmailInUse {
		return false, nil
	}
	return false, fmt.Errorf("create admin %s: %w", email, err)
}

type SeedFile struct {
	Students []model.Draft `yaml:"students"`
}

// LoadSeed decodes a YAML seed file. Unknown keys are rejected.
func LoadSeed(r io.Reader) ([]model.Draft, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed SeedFile
	if err := dec.Decode(&seed); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return seed.Students, nil
}

type SeedOptions struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// SeedStudents inserts drafts through a record list controller so seeded
// documents get the same validation and createdAt as ones added in the UI.
// It stops at the first failure and reports how many were inserted.
func SeedStudents(ctx context.Context, students store.Collection, drafts []model.Draft, opts SeedOptions) (int, error) {
	ctrlOpts := []records.Option{}
	if opts.Logger != nil {
		ctrlOpts = append(ctrlOpts, records.WithLogger(opts.Logger))
	}
	if opts.Now != nil {
		ctrlOpts = append(ctrlOpts, records.WithClock(opts.Now))
	}
	ctrl := records.NewController(students, ctrlOpts...)

	for i, draft := range drafts {
		if _, err := ctrl.Create(ctx, draft); err != nil {
			return i, fmt.Errorf("seed student %d: %w", i+1, err)
		}
	}
	return len(drafts), nil
}
