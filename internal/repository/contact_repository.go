package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eterna/internal/domain"
)

var (
	ErrContactNotFound    = errors.New("contact not found")
	ErrContactPhoneExists = errors.New("contact with this phone already exists")
)

// ContactRepository stores storefront inquiries. There is no update or delete.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	FindByPhone(ctx context.Context, phone string) (*domain.Contact, error)
	List(ctx context.Context) ([]*domain.Contact, error)
}

type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new instance of ContactRepository
func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

const contactColumns = `id, name, phone, email, message, created_at`

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, name, phone, email, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		contact.ID,
		contact.Name,
		contact.Phone,
		contact.Email,
		contact.Message,
		contact.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "contacts_phone_key") {
			return ErrContactPhoneExists
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

func (r *contactRepository) FindByPhone(ctx context.Context, phone string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE phone = $1`

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to find contact by phone: %w", err)
	}

	return contact, nil
}

// List returns every contact, newest first
func (r *contactRepository) List(ctx context.Context) ([]*domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*domain.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}

	return contacts, nil
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	contact := &domain.Contact{}
	err := row.Scan(
		&contact.ID,
		&contact.Name,
		&contact.Phone,
		&contact.Email,
		&contact.Message,
		&contact.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return contact, nil
}
