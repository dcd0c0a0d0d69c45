package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/WAzaizeh/ChainFlow/internal/models"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")

	ErrItemNotFound = errors.New("inventory item not found")

	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotDraft    = errors.New("order is not a draft")
	ErrDraftOrderExists = errors.New("draft order already exists")
	ErrInvalidOrderType = errors.New("invalid order type")

	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
)

// Notifier pushes a rendered update for one state change to every
// connected viewer session. Implemented by the broadcaster; substituted
// by a recording fake in tests.
type Notifier interface {
	BroadcastTaskUpdate(task *models.Task, updateKind, subtaskID string)
}

type TaskService interface {
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	ListTasks(ctx context.Context) ([]*models.Task, error)
	CreateTask(ctx context.Context, title string) (*models.Task, error)
	AddSubtask(ctx context.Context, taskID, title string) (*models.Subtask, error)

	// ToggleTask flips the task status and cascades it down to every
	// subtask. One task-level history entry is always written; cascade
	// entries per subtask only when cascade auditing is enabled.
	ToggleTask(ctx context.Context, taskID, userID string) (*ToggleTaskResult, error)

	// ToggleSubtask flips one subtask and applies the cascade-up rule:
	// all siblings done marks the task done, all not done unmarks it.
	// The subtask change and any cascaded task change each get a
	// history entry.
	ToggleSubtask(ctx context.Context, taskID, subtaskID, userID string) (*ToggleSubtaskResult, error)

	// UpdateNote replaces the task notes. Status and subtasks are
	// never touched.
	UpdateNote(ctx context.Context, taskID, note, userID string) (*models.Task, error)

	// ListHistory returns the task's audit trail, newest first.
	ListHistory(ctx context.Context, taskID string) ([]*models.TaskHistory, error)
}

type ToggleTaskResult struct {
	Task *models.Task
	// ChangedSubtasks holds only the subtasks the cascade actually
	// flipped, so callers redraw no more than necessary.
	ChangedSubtasks []*models.Subtask
}

type ToggleSubtaskResult struct {
	Task        *models.Task
	Subtask     *models.Subtask
	TaskChanged bool
}

// InventoryService maintains stock counts and their append-only
// adjustment log.
type InventoryService interface {
	GetItem(ctx context.Context, itemID string) (*models.InventoryItem, error)
	ListItems(ctx context.Context) ([]*models.InventoryItem, error)

	// SearchItems matches item names case-insensitively on a
	// substring, capped to a small result set.
	SearchItems(ctx context.Context, query string) ([]*models.InventoryItem, error)

	CreateItem(ctx context.Context, name string, quantity float64, unit string) (*models.InventoryItem, error)

	// AdjustQuantity applies a signed count change to the item and
	// records it in the adjustment log. The delta is taken at face
	// value in the supplied unit; no conversion happens here.
	AdjustQuantity(ctx context.Context, itemID string, delta float64, unit, userID string) (*models.InventoryItem, error)

	// ListChanges returns the item's adjustment log, newest first.
	ListChanges(ctx context.Context, itemID string) ([]*models.InventoryChange, error)
}

// OrderService manages the purchase order lifecycle: one open draft
// per user, lines added while drafting, then a one-way submit.
type OrderService interface {
	// StartOrder opens a draft for the user. Returns
	// ErrDraftOrderExists while a previous draft is still open.
	StartOrder(ctx context.Context, userID string) (*models.Order, error)

	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*models.Order, error)

	// AddOrderItem appends a line to a draft order, snapshotting the
	// product name from inventory. Returns ErrOrderNotDraft once the
	// order has been submitted.
	AddOrderItem(ctx context.Context, orderID, productID string, quantity int, notes string) (*models.OrderItem, error)

	// SubmitOrder moves a draft to submitted and stamps the time.
	SubmitOrder(ctx context.Context, orderID string) (*models.Order, error)

	// UpdateOrderType switches the order between regular, urgent and
	// special handling.
	UpdateOrderType(ctx context.Context, orderID, orderType string) (*models.Order, error)

	// DeleteOrder discards a draft. Submitted orders are permanent.
	DeleteOrder(ctx context.Context, orderID string) error
}

// ArchiveService runs the externally triggered snapshot-and-reset
// cycle. Both operations are best-effort bulk: they continue past
// per-task failures and report every outcome.
type ArchiveService interface {
	Archive(ctx context.Context) (*CycleReport, error)
	Reset(ctx context.Context) (*CycleReport, error)
}

type TaskOutcome struct {
	TaskID string
	Err    error
}

type CycleReport struct {
	RunID     string
	Succeeded int
	Failed    int
	Outcomes  []TaskOutcome
}

type AuthService interface {
	// Login authenticates by email and password and opens a session
	// with a fresh token pair. Returns ErrUserNotFound or
	// ErrUserPasswordMismatch on bad credentials.
	Login(ctx context.Context, params Credentials) (*LoginResult, error)

	// Register creates a user and an initial session. Returns
	// ErrUserAlreadyExists if the email is taken.
	Register(ctx context.Context, params Credentials) (*LoginResult, error)

	// Refresh rotates the refresh token of an existing session.
	// Returns ErrSessionNotFound or ErrSessionExpired.
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)

	// Logout invalidates every session of the user.
	Logout(ctx context.Context, userID string) error

	// VerifyToken parses the access token and returns its claims; the
	// subject is the session id.
	VerifyToken(token string) (*jwt.RegisteredClaims, error)

	// ResolveSession maps a session id to its user.
	ResolveSession(ctx context.Context, sessionID string) (*models.Session, error)
}

type Credentials struct {
	Email    string
	Name     string
	Password string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}
