package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"model-parameters/internal/core/domain"
	"model-parameters/internal/core/ports/output"
)

// Resolver turns model and project refs into canonical ids. Only refs given
// by a display name that is not itself id-shaped cost a remote lookup.
type Resolver struct {
	repo ports.ModelRepository
}

func NewResolver(repo ports.ModelRepository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) ResolveModel(ctx context.Context, ref domain.Ref) (string, error) {
	return r.resolve(ctx, ref, "model", func(ctx context.Context, name string) (string, error) {
		model, err := r.repo.GetModel(ctx, name)
		if err != nil {
			return "", err
		}
		if model.ID == "" {
			return "", fmt.Errorf("%w: %s", domain.ErrModelNotFound, name)
		}
		return model.ID, nil
	})
}

func (r *Resolver) ResolveProject(ctx context.Context, ref domain.Ref) (string, error) {
	return r.resolve(ctx, ref, "project", func(ctx context.Context, name string) (string, error) {
		project, err := r.repo.GetProject(ctx, name)
		if err != nil {
			return "", err
		}
		if project.ID == "" {
			return "", fmt.Errorf("%w: %s", domain.ErrProjectNotFound, name)
		}
		return project.ID, nil
	})
}

type lookupFunc func(ctx context.Context, name string) (string, error)

func (r *Resolver) resolve(ctx context.Context, ref domain.Ref, kind string, lookup lookupFunc) (string, error) {
	switch ref.Kind() {
	case domain.RefKindID:
		if ref.ID() == "" {
			return "", domain.ErrInvalidRef
		}
		return ref.ID(), nil
	case domain.RefKindRecord:
		if ref.ID() != "" {
			return ref.ID(), nil
		}
	}

	name := ref.Name()
	if name == "" {
		return "", domain.ErrInvalidRef
	}
	if domain.IsValidID(name) {
		return name, nil
	}

	id, err := lookup(ctx, name)
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"kind": kind,
		"name": name,
		"id":   id,
	}).Debug("resolved name to id")

	return id, nil
}
