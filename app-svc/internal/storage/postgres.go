package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"foodcourt/app-svc/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	DB    *sql.DB
	newID func() string
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db, newID: uuid.NewString}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// assignments builds the SET list of a partial update.
type assignments struct {
	cols []string
	args []interface{}
}

func (a *assignments) add(col string, value interface{}) {
	a.args = append(a.args, value)
	a.cols = append(a.cols, fmt.Sprintf("%s=$%d", col, len(a.args)))
}

func (r *PostgresRepository) update(ctx context.Context, table, id string, a assignments) error {
	if len(a.cols) == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table), id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return nil
	}

	args := append(a.args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id=$%d", table, strings.Join(a.cols, ", "), len(args))
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *PostgresRepository) delete(ctx context.Context, table, id string) error {
	result, err := r.DB.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id=$1", table), id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const restaurantColumns = "id, name, description, rating, categories, delivery_time, image, is_active, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRestaurant(row rowScanner) (domain.Restaurant, error) {
	var rest domain.Restaurant
	err := row.Scan(&rest.ID, &rest.Name, &rest.Description, &rest.Rating, pq.Array(&rest.Categories),
		&rest.DeliveryTime, &rest.Image, &rest.IsActive, &rest.CreatedAt)
	return rest, err
}

func (r *PostgresRepository) ListRestaurants(ctx context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error) {
	query := "SELECT " + restaurantColumns + " FROM restaurants"
	if filter.ActiveOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []domain.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, rest)
	}
	return restaurants, rows.Err()
}

func (r *PostgresRepository) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	rest, err := scanRestaurant(r.DB.QueryRowContext(ctx, "SELECT "+restaurantColumns+" FROM restaurants WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &rest, nil
}

func (r *PostgresRepository) CreateRestaurant(ctx context.Context, rest *domain.Restaurant) (string, error) {
	rest.ID = r.newID()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO restaurants (id, name, description, rating, categories, delivery_time, image, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		rest.ID, rest.Name, rest.Description, rest.Rating, pq.Array(rest.Categories),
		rest.DeliveryTime, rest.Image, rest.IsActive,
	).Scan(&rest.CreatedAt)
	if err != nil {
		return "", err
	}
	return rest.ID, nil
}

func (r *PostgresRepository) UpdateRestaurant(ctx context.Context, id string, patch domain.RestaurantPatch) error {
	var a assignments
	if patch.Name != nil {
		a.add("name", *patch.Name)
	}
	if patch.Description != nil {
		a.add("description", *patch.Description)
	}
	if patch.Rating != nil {
		a.add("rating", *patch.Rating)
	}
	if patch.Categories != nil {
		a.add("categories", pq.Array(*patch.Categories))
	}
	if patch.DeliveryTime != nil {
		a.add("delivery_time", *patch.DeliveryTime)
	}
	if patch.Image != nil {
		a.add("image", *patch.Image)
	}
	if patch.IsActive != nil {
		a.add("is_active", *patch.IsActive)
	}
	return r.update(ctx, "restaurants", id, a)
}

func (r *PostgresRepository) DeleteRestaurant(ctx context.Context, id string) error {
	return r.delete(ctx, "restaurants", id)
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name, icon, created_at FROM categories ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Icon, &category.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *PostgresRepository) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	var category domain.Category
	err := r.DB.QueryRowContext(ctx, "SELECT id, name, icon, created_at FROM categories WHERE id = $1", id).
		Scan(&category.ID, &category.Name, &category.Icon, &category.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

func (r *PostgresRepository) CreateCategory(ctx context.Context, category *domain.Category) (string, error) {
	category.ID = r.newID()
	err := r.DB.QueryRowContext(ctx,
		"INSERT INTO categories (id, name, icon) VALUES ($1, $2, $3) RETURNING created_at",
		category.ID, category.Name, category.Icon,
	).Scan(&category.CreatedAt)
	if err != nil {
		return "", err
	}
	return category.ID, nil
}

func (r *PostgresRepository) UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) error {
	var a assignments
	if patch.Name != nil {
		a.add("name", *patch.Name)
	}
	if patch.Icon != nil {
		a.add("icon", *patch.Icon)
	}
	return r.update(ctx, "categories", id, a)
}

func (r *PostgresRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.delete(ctx, "categories", id)
}

const foodColumns = "id, name, description, price, image, category_id, restaurant_id, is_available, created_at"

func scanFood(row rowScanner) (domain.FoodItem, error) {
	var food domain.FoodItem
	err := row.Scan(&food.ID, &food.Name, &food.Description, &food.Price, &food.Image,
		&food.CategoryID, &food.RestaurantID, &food.IsAvailable, &food.CreatedAt)
	return food, err
}

func (r *PostgresRepository) ListFoods(ctx context.Context, filter domain.FoodFilter) ([]domain.FoodItem, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.RestaurantID != "" {
		args = append(args, filter.RestaurantID)
		conds = append(conds, fmt.Sprintf("restaurant_id = $%d", len(args)))
	}
	if filter.AvailableOnly {
		conds = append(conds, "is_available = TRUE")
	}

	query := "SELECT " + foodColumns + " FROM foods"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var foods []domain.FoodItem
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		foods = append(foods, food)
	}
	return foods, rows.Err()
}

func (r *PostgresRepository) GetFood(ctx context.Context, id string) (*domain.FoodItem, error) {
	food, err := scanFood(r.DB.QueryRowContext(ctx, "SELECT "+foodColumns+" FROM foods WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &food, nil
}

func (r *PostgresRepository) CreateFood(ctx context.Context, food *domain.FoodItem) (string, error) {
	food.ID = r.newID()
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO foods (id, name, description, price, image, category_id, restaurant_id, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		food.ID, food.Name, food.Description, food.Price, food.Image,
		food.CategoryID, food.RestaurantID, food.IsAvailable,
	).Scan(&food.CreatedAt)
	if err != nil {
		return "", err
	}
	return food.ID, nil
}

func (r *PostgresRepository) UpdateFood(ctx context.Context, id string, patch domain.FoodPatch) error {
	var a assignments
	if patch.Name != nil {
		a.add("name", *patch.Name)
	}
	if patch.Description != nil {
		a.add("description", *patch.Description)
	}
	if patch.Price != nil {
		a.add("price", *patch.Price)
	}
	if patch.Image != nil {
		a.add("image", *patch.Image)
	}
	if patch.CategoryID != nil {
		a.add("category_id", *patch.CategoryID)
	}
	if patch.IsAvailable != nil {
		a.add("is_available", *patch.IsAvailable)
	}
	return r.update(ctx, "foods", id, a)
}

func (r *PostgresRepository) DeleteFood(ctx context.Context, id string) error {
	return r.delete(ctx, "foods", id)
}

const orderColumns = "id, user_id, user_name, restaurant_id, restaurant_name, total_amount, status, address, created_at"

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	err := row.Scan(&order.ID, &order.UserID, &order.UserName, &order.RestaurantID, &order.RestaurantName,
		&order.TotalAmount, &order.Status, &order.Address, &order.CreatedAt)
	return order, err
}

func (r *PostgresRepository) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	var args []interface{}
	if filter.UserID != "" {
		query += " WHERE user_id = $1"
		args = append(args, filter.UserID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	index := make(map[string]int)
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[order.ID] = len(orders)
		ids = append(ids, order.ID)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	itemRows, err := r.DB.QueryContext(ctx, `
		SELECT order_id, food_id, name, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID string
			item    domain.OrderItem
		)
		if err := itemRows.Scan(&orderID, &item.FoodID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, itemRows.Err()
}

func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanOrder(r.DB.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT food_id, name, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.FoodID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return &order, rows.Err()
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) (string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	order.ID = r.newID()
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, user_id, user_name, restaurant_id, restaurant_name, total_amount, status, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		order.ID, order.UserID, order.UserName, order.RestaurantID, order.RestaurantName,
		order.TotalAmount, order.Status, order.Address,
	).Scan(&order.CreatedAt); err != nil {
		return "", err
	}

	for i, item := range order.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, food_id, name, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, i, item.FoodID, item.Name, item.Quantity, item.Price); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return order.ID, nil
}

func (r *PostgresRepository) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) error {
	var a assignments
	if patch.Status != nil {
		a.add("status", *patch.Status)
	}
	return r.update(ctx, "orders", id, a)
}

func (r *PostgresRepository) DeleteOrder(ctx context.Context, id string) error {
	return r.delete(ctx, "orders", id)
}

func (r *PostgresRepository) CreateProfile(ctx context.Context, id string, profile domain.Identity) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, phone, address, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email, name = EXCLUDED.name, role = EXCLUDED.role,
			phone = EXCLUDED.phone, address = EXCLUDED.address, is_active = EXCLUDED.is_active`,
		id, profile.Email, profile.Name, profile.Role, profile.Phone, profile.Address, profile.IsActive)
	return err
}

const profileColumns = "id, email, name, role, phone, address, is_active"

func scanProfile(row rowScanner) (domain.Identity, error) {
	var profile domain.Identity
	err := row.Scan(&profile.ID, &profile.Email, &profile.Name, &profile.Role,
		&profile.Phone, &profile.Address, &profile.IsActive)
	return profile, err
}

func (r *PostgresRepository) GetProfile(ctx context.Context, id string) (*domain.Identity, error) {
	profile, err := scanProfile(r.DB.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *PostgresRepository) ListProfiles(ctx context.Context) ([]domain.Identity, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+profileColumns+" FROM users ORDER BY email")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Identity
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *PostgresRepository) SetProfileFields(ctx context.Context, id string, patch domain.ProfilePatch) error {
	var a assignments
	if patch.Name != nil {
		a.add("name", *patch.Name)
	}
	if patch.Phone != nil {
		a.add("phone", *patch.Phone)
	}
	if patch.Address != nil {
		a.add("address", *patch.Address)
	}
	if patch.IsActive != nil {
		a.add("is_active", *patch.IsActive)
	}
	return r.update(ctx, "users", id, a)
}

func (r *PostgresRepository) InsertAccount(ctx context.Context, account Account) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (id, email, password_hash) VALUES ($1, $2, $3)",
		account.ID, account.Email, account.PasswordHash)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *PostgresRepository) FindAccountByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := r.DB.QueryRowContext(ctx, "SELECT id, email, password_hash FROM accounts WHERE email = $1", email).
		Scan(&account.ID, &account.Email, &account.PasswordHash)
	if err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			categories TEXT[] NOT NULL DEFAULT '{}',
			delivery_time TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			icon TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`,
		`CREATE TABLE IF NOT EXISTS foods (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			category_id TEXT NOT NULL DEFAULT '',
			restaurant_id TEXT NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL DEFAULT '',
			restaurant_id TEXT NOT NULL,
			restaurant_name TEXT NOT NULL DEFAULT '',
			total_amount DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			position INT NOT NULL,
			food_id TEXT NOT NULL,
			name TEXT NOT NULL,
			quantity INT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (order_id, position))`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL)`,
		"CREATE INDEX IF NOT EXISTS orders_user_idx ON orders (user_id, created_at DESC)",
	}
	for _, stmt := range statements {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema `%s`: %w", stmt, err)
		}
	}
	return nil
}

var _ AccountStore = (*PostgresRepository)(nil)
