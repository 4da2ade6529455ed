package services

import (
	"fmt"
	"strings"

	"github.com/yukikurage/projectdesk/internal/models"
	"github.com/yukikurage/projectdesk/internal/repository"
)

// ClientService handles client business logic
type ClientService struct {
	store *repository.Store
	audit recorder
}

// NewClientService creates a new ClientService
func NewClientService(store *repository.Store, audit *AuditService) *ClientService {
	return &ClientService{store: store, audit: recorder{now: audit.now}}
}

// CreateClientInput represents input for creating a client
type CreateClientInput struct {
	Name         string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Notes        string
}

// UpdateClientInput represents input for updating a client
type UpdateClientInput struct {
	Version      uint64
	Name         *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Notes        *string
}

func (s *ClientService) Create(actor Actor, input CreateClientInput) (*models.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name", "is required")
	}

	client := &models.Client{
		Name:         name,
		ContactName:  strings.TrimSpace(input.ContactName),
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		Notes:        input.Notes,
		Version:      1,
	}
	err := s.store.Transaction(func(tx *repository.Store) error {
		if err := tx.Clients.Create(client); err != nil {
			return storeErr("client", "create", err)
		}
		return s.audit.record(tx, actor, models.EntityClient, client.ID, models.AuditActionCreate, nil, client)
	})
	if err != nil {
		return nil, txErr("client", "create", err)
	}
	return client, nil
}

func (s *ClientService) Get(id uint64) (*models.Client, error) {
	client, err := s.store.Clients.FindByID(id)
	if err != nil {
		return nil, storeErr("client", "find", err)
	}
	return client, nil
}

func (s *ClientService) List(page repository.Page) ([]models.Client, int64, error) {
	clients, total, err := s.store.Clients.List(page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, total, nil
}

func (s *ClientService) Update(actor Actor, id uint64, input UpdateClientInput) (*models.Client, error) {
	if input.Version == 0 {
		return nil, invalid("version", "is required")
	}

	var client *models.Client
	err := s.store.Transaction(func(tx *repository.Store) error {
		var err error
		client, err = tx.Clients.FindByID(id)
		if err != nil {
			return storeErr("client", "find", err)
		}
		before := *client

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return invalid("name", "cannot be empty")
			}
			client.Name = name
		}
		if input.ContactName != nil {
			client.ContactName = strings.TrimSpace(*input.ContactName)
		}
		if input.ContactEmail != nil {
			client.ContactEmail = strings.TrimSpace(*input.ContactEmail)
		}
		if input.ContactPhone != nil {
			client.ContactPhone = strings.TrimSpace(*input.ContactPhone)
		}
		if input.Notes != nil {
			client.Notes = *input.Notes
		}

		client.Version = input.Version
		if err := tx.Clients.Update(client); err != nil {
			return storeErr("client", "update", err)
		}
		return s.audit.record(tx, actor, models.EntityClient, client.ID, models.AuditActionUpdate, before, client)
	})
	if err != nil {
		return nil, txErr("client", "update", err)
	}
	return client, nil
}

// Delete removes a client that has no projects.
func (s *ClientService) Delete(actor Actor, id, version uint64) error {
	err := s.store.Transaction(func(tx *repository.Store) error {
		client, err := tx.Clients.FindByID(id)
		if err != nil {
			return storeErr("client", "find", err)
		}
		projects, err := tx.Projects.CountByClient(client.ID)
		if err != nil {
			return fmt.Errorf("failed to count client projects: %w", err)
		}
		if projects > 0 {
			return invalid("id", fmt.Sprintf("client still has %d project(s)", projects))
		}

		before := *client
		if version != 0 {
			client.Version = version
		}
		if err := tx.Clients.Delete(client); err != nil {
			return storeErr("client", "delete", err)
		}
		return s.audit.record(tx, actor, models.EntityClient, client.ID, models.AuditActionDelete, before, nil)
	})
	return txErr("client", "delete", err)
}
