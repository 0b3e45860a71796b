package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"digital-menu/catalog-svc/internal/domain"

	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

// Migrate applies the embedded migrations in file name order. Every statement is idempotent.
func (r *PostgresRepository) Migrate(ctx context.Context) ([]string, error) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		stmt, err := migrationsFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.DB.ExecContext(ctx, string(stmt)); err != nil {
			return nil, fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return names, nil
}

const itemColumns = "id, owner_id, name, description, price, category, image_url, available, created_at, position"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.MenuItem, error) {
	var item domain.MenuItem
	var imageURL sql.NullString
	err := row.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.Price,
		&item.Category, &imageURL, &item.Available, &item.CreatedAt, &item.Position)
	if imageURL.Valid {
		item.ImageURL = &imageURL.String
	}
	return item, err
}

func (r *PostgresRepository) ListItems(ctx context.Context, ownerID string) ([]domain.MenuItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM menu_items
		WHERE owner_id = $1
		ORDER BY position ASC, created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.MenuItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO menu_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.OwnerID, item.Name, item.Description, item.Price,
		string(item.Category), item.ImageURL, item.Available, item.CreatedAt, item.Position)
	return err
}

func (r *PostgresRepository) GetItem(ctx context.Context, ownerID, id string) (*domain.MenuItem, error) {
	item, err := scanItem(r.DB.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM menu_items WHERE id = $1 AND owner_id = $2", id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) UpdateItem(ctx context.Context, ownerID, id string, patch domain.MenuItemPatch) (int64, error) {
	var category *string
	if patch.Category != nil {
		c := string(*patch.Category)
		category = &c
	}
	result, err := r.DB.ExecContext(ctx, `
		UPDATE menu_items
		SET name = COALESCE($1, name),
			description = COALESCE($2, description),
			price = COALESCE($3, price),
			category = COALESCE($4, category),
			image_url = COALESCE($5, image_url),
			available = COALESCE($6, available)
		WHERE id = $7 AND owner_id = $8`,
		patch.Name, patch.Description, patch.Price, category, patch.ImageURL, patch.Available, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, ownerID, id string) (int64, error) {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM menu_items WHERE id = $1 AND owner_id = $2", id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SetPositions writes the whole batch in one transaction. An id that does not belong to
// the owner aborts the batch with domain.ErrNotFound.
func (r *PostgresRepository) SetPositions(ctx context.Context, ownerID string, pairs []domain.PositionPair) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, pair := range pairs {
		result, err := tx.ExecContext(ctx,
			"UPDATE menu_items SET position = $1 WHERE id = $2 AND owner_id = $3",
			pair.Position, pair.ID, ownerID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("position for %s: %w", pair.ID, domain.ErrNotFound)
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	err := r.DB.QueryRowContext(ctx,
		"INSERT INTO accounts (id, email, password_hash) VALUES ($1, $2, $3) RETURNING created_at",
		account.ID, account.Email, account.PasswordHash).Scan(&account.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateEmail
	}
	return err
}

func (r *PostgresRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM accounts WHERE email = $1", email).
		Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *PostgresRepository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM accounts WHERE id = $1", id).
		Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

const settingsColumns = "owner_id, restaurant_name, slug, whatsapp_number, tagline"

func (r *PostgresRepository) GetSettings(ctx context.Context, ownerID string) (*domain.Settings, error) {
	return r.querySettings(ctx, "SELECT "+settingsColumns+" FROM settings WHERE owner_id = $1", ownerID)
}

func (r *PostgresRepository) GetSettingsBySlug(ctx context.Context, slug string) (*domain.Settings, error) {
	return r.querySettings(ctx, "SELECT "+settingsColumns+" FROM settings WHERE slug = $1", slug)
}

func (r *PostgresRepository) querySettings(ctx context.Context, query, arg string) (*domain.Settings, error) {
	var s domain.Settings
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&s.OwnerID, &s.RestaurantName, &s.Slug, &s.WhatsAppNumber, &s.Tagline)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) UpsertSettings(ctx context.Context, s *domain.Settings) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO settings (`+settingsColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id) DO UPDATE SET
			restaurant_name = EXCLUDED.restaurant_name,
			slug = EXCLUDED.slug,
			whatsapp_number = EXCLUDED.whatsapp_number,
			tagline = EXCLUDED.tagline`,
		s.OwnerID, s.RestaurantName, s.Slug, s.WhatsAppNumber, s.Tagline)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateSlug
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
