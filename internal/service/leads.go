package service

import (
	"context"
	"strings"

	"marketplace-api/internal/domain"
)

type LeadService struct {
	repo domain.LeadRepository
}

func NewLeadService(repo domain.LeadRepository) *LeadService { return &LeadService{repo: repo} }

type LeadInput struct {
	ListingID *string
	ServiceID *string
	Name      string
	Email     string
	Phone     *string
	Message   string
}

func blankToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// CreateLead records a contact request. actor is nil for anonymous visitors.
func (s *LeadService) CreateLead(ctx context.Context, actor *domain.Actor, in LeadInput) (*domain.Lead, error) {
	l := &domain.Lead{
		ListingID: blankToNil(in.ListingID),
		ServiceID: blankToNil(in.ServiceID),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     blankToNil(in.Phone),
		Message:   strings.TrimSpace(in.Message),
	}
	if l.ListingID == nil && l.ServiceID == nil {
		return nil, domain.Invalid("listing_id or service_id is required")
	}
	if l.Name == "" || l.Email == "" || l.Message == "" {
		return nil, domain.Invalid("name, email and message are required")
	}
	if actor != nil {
		uid := actor.UserID
		l.UserID = &uid
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *LeadService) ListServiceLeads(ctx context.Context) ([]domain.ServiceLead, error) {
	return s.repo.ListServiceLeads(ctx)
}

func (s *LeadService) ListPurchaseLeads(ctx context.Context) ([]domain.PurchaseLead, error) {
	return s.repo.ListPurchaseLeads(ctx)
}

type ContactoInput struct {
	Name    string
	Email   string
	Contact string
	Message string
}

func (s *LeadService) CreateContacto(ctx context.Context, in ContactoInput) (*domain.Contacto, error) {
	c := &domain.Contacto{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Contact: strings.TrimSpace(in.Contact),
		Message: strings.TrimSpace(in.Message),
	}
	if c.Name == "" || c.Email == "" || c.Contact == "" || c.Message == "" {
		return nil, domain.Invalid("name, email, contact and message are required")
	}
	if err := s.repo.CreateContacto(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
