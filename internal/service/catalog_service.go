package service

import (
	"dealflow/internal/authz"
	"dealflow/internal/model"
	"dealflow/internal/session"
)

type CatalogService interface {
	Catalog(sess *session.Session) (model.Catalog, error)
}

type catalogService struct {
	catalog  model.Catalog
	enforcer *authz.Enforcer
}

func NewCatalogService(catalog model.Catalog, enforcer *authz.Enforcer) CatalogService {
	return &catalogService{catalog: catalog, enforcer: enforcer}
}

func (s *catalogService) Catalog(sess *session.Session) (model.Catalog, error) {
	if err := authorize(s.enforcer, sess, authz.ResourceCatalog, authz.ActionRead); err != nil {
		return model.Catalog{}, err
	}
	return s.catalog, nil
}
