package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domainSchedule "github.com/AzielCF/az-post/domains/schedule"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// migrations are applied in order; schema_migrations records the last applied
// version. Schema changes get a new entry here, never runtime column sniffing.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS scheduled_posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL DEFAULT 'linkedin',
		content TEXT NOT NULL,
		content_source TEXT NOT NULL DEFAULT 'topic',
		image_url TEXT,
		cron_expression TEXT,
		scheduled_at DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		review_token TEXT,
		team_emails TEXT,
		approved_emails TEXT,
		review_comments TEXT,
		reviewed_at DATETIME,
		post_id TEXT,
		post_url TEXT,
		posted_at DATETIME,
		error_message TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scheduled_posts_user ON scheduled_posts(user_id);
	CREATE INDEX IF NOT EXISTS idx_scheduled_posts_due ON scheduled_posts(status, scheduled_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_scheduled_posts_review_token ON scheduled_posts(review_token) WHERE review_token IS NOT NULL;`,
}

func (r *SQLiteRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at DATETIME NOT NULL)`); err != nil {
		return fmt.Errorf("failed to init schema_migrations: %w", err)
	}

	var current sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&current); err != nil {
		return err
	}

	for i, migration := range migrations {
		version := int64(i + 1)
		if current.Valid && version <= current.Int64 {
			continue
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, version, time.Now().UTC()); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

const scheduledPostColumns = `id, user_id, platform, content, content_source, image_url, cron_expression, scheduled_at, status, review_token, team_emails, approved_emails, review_comments, reviewed_at, post_id, post_url, posted_at, error_message, created_at, updated_at`

func marshalEmails(emails []string) any {
	if len(emails) == 0 {
		return nil
	}
	data, _ := json.Marshal(emails)
	return string(data)
}

func unmarshalEmails(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var emails []string
	_ = json.Unmarshal([]byte(raw.String), &emails)
	return emails
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduledPost(row rowScanner) (domainSchedule.ScheduledPost, error) {
	var (
		post                                 domainSchedule.ScheduledPost
		imageURL, cronExpr, reviewToken      sql.NullString
		teamEmails, approvedEmails, comments sql.NullString
		postID, postURL, errorMessage        sql.NullString
		reviewedAt, postedAt                 sql.NullTime
	)
	err := row.Scan(&post.ID, &post.UserID, &post.Platform, &post.Content, &post.ContentSource,
		&imageURL, &cronExpr, &post.ScheduledAt, &post.Status, &reviewToken,
		&teamEmails, &approvedEmails, &comments, &reviewedAt,
		&postID, &postURL, &postedAt, &errorMessage, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return domainSchedule.ScheduledPost{}, err
	}
	post.ImageURL = imageURL.String
	post.CronExpression = cronExpr.String
	post.ReviewToken = reviewToken.String
	post.TeamEmails = unmarshalEmails(teamEmails)
	post.ApprovedEmails = unmarshalEmails(approvedEmails)
	post.ReviewComments = comments.String
	post.PostID = postID.String
	post.PostURL = postURL.String
	post.ErrorMessage = errorMessage.String
	if reviewedAt.Valid {
		t := reviewedAt.Time.UTC()
		post.ReviewedAt = &t
	}
	if postedAt.Valid {
		t := postedAt.Time.UTC()
		post.PostedAt = &t
	}
	post.ScheduledAt = post.ScheduledAt.UTC()
	return post, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *SQLiteRepository) CreateScheduledPost(ctx context.Context, post domainSchedule.ScheduledPost) error {
	query := `INSERT INTO scheduled_posts (` + scheduledPostColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.UserID, post.Platform, post.Content, post.ContentSource,
		nullable(post.ImageURL), nullable(post.CronExpression), post.ScheduledAt.UTC(), post.Status, nullable(post.ReviewToken),
		marshalEmails(post.TeamEmails), marshalEmails(post.ApprovedEmails), nullable(post.ReviewComments), post.ReviewedAt,
		nullable(post.PostID), nullable(post.PostURL), post.PostedAt, nullable(post.ErrorMessage), post.CreatedAt.UTC(), post.UpdatedAt.UTC())
	return err
}

func (r *SQLiteRepository) GetScheduledPost(ctx context.Context, id string) (domainSchedule.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = ?`
	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return domainSchedule.ScheduledPost{}, domainSchedule.ErrScheduleNotFound
	}
	return post, err
}

func (r *SQLiteRepository) GetScheduledPostByReviewToken(ctx context.Context, token string) (domainSchedule.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE review_token = ?`
	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, token))
	if err == sql.ErrNoRows {
		return domainSchedule.ScheduledPost{}, domainSchedule.ErrScheduleNotFound
	}
	return post, err
}

func (r *SQLiteRepository) ListScheduledPostsByUser(ctx context.Context, userID string) ([]domainSchedule.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE user_id = ? ORDER BY created_at DESC`
	return r.queryPosts(ctx, query, userID)
}

func (r *SQLiteRepository) FindPendingRecurringDuplicate(ctx context.Context, userID, content, cronExpr string) (domainSchedule.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE user_id = ? AND content = ? AND cron_expression = ? AND status = ? LIMIT 1`
	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, userID, content, cronExpr, domainSchedule.StatusPending))
	if err == sql.ErrNoRows {
		return domainSchedule.ScheduledPost{}, domainSchedule.ErrScheduleNotFound
	}
	return post, err
}

func (r *SQLiteRepository) ListDueScheduledPosts(ctx context.Context, now time.Time) ([]domainSchedule.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE status = ? AND scheduled_at <= ? ORDER BY scheduled_at ASC`
	return r.queryPosts(ctx, query, domainSchedule.StatusPending, now.UTC())
}

func (r *SQLiteRepository) queryPosts(ctx context.Context, query string, args ...any) ([]domainSchedule.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domainSchedule.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// UpdateOwnedScheduledPost updates the owner-editable fields, matching on
// (id, user_id) so a caller can never touch another tenant's record.
func (r *SQLiteRepository) UpdateOwnedScheduledPost(ctx context.Context, post domainSchedule.ScheduledPost) error {
	query := `UPDATE scheduled_posts SET content=?, content_source=?, image_url=?, cron_expression=?, scheduled_at=?, status=?, updated_at=? WHERE id=? AND user_id=?`
	res, err := r.db.ExecContext(ctx, query,
		post.Content, post.ContentSource, nullable(post.ImageURL), nullable(post.CronExpression),
		post.ScheduledAt.UTC(), post.Status, time.Now().UTC(), post.ID, post.UserID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domainSchedule.ErrScheduleNotFound
	}
	return nil
}

// UpdateReviewState writes status and review bookkeeping after a token lookup.
// A 'pending_approval' write never demotes a record already promoted to
// 'pending': the last concurrent approver decides the transition, and a
// slower partial-approval write must not undo it.
func (r *SQLiteRepository) UpdateReviewState(ctx context.Context, post domainSchedule.ScheduledPost) error {
	query := `UPDATE scheduled_posts
		SET status = CASE WHEN status = 'pending' AND ? = 'pending_approval' THEN status ELSE ? END,
		    review_comments=?, reviewed_at=?, updated_at=?
		WHERE id=?`
	res, err := r.db.ExecContext(ctx, query, post.Status, post.Status, nullable(post.ReviewComments), post.ReviewedAt, time.Now().UTC(), post.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domainSchedule.ErrScheduleNotFound
	}
	return nil
}

// UpdateExecutionState is the executor's write path: status, error and
// publish outcome plus the re-armed scheduled_at.
func (r *SQLiteRepository) UpdateExecutionState(ctx context.Context, post domainSchedule.ScheduledPost) error {
	query := `UPDATE scheduled_posts SET status=?, error_message=?, post_id=?, post_url=?, posted_at=?, scheduled_at=?, updated_at=? WHERE id=?`
	res, err := r.db.ExecContext(ctx, query,
		post.Status, nullable(post.ErrorMessage), nullable(post.PostID), nullable(post.PostURL),
		post.PostedAt, post.ScheduledAt.UTC(), time.Now().UTC(), post.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domainSchedule.ErrScheduleNotFound
	}
	return nil
}

// AppendApproval adds email to approved_emails inside a single transaction.
// The read-modify-write is atomic (SQLite serializes writers), so two
// reviewers approving concurrently both land in the list. The append is
// idempotent and case-insensitive.
func (r *SQLiteRepository) AppendApproval(ctx context.Context, id, email string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var raw sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT approved_emails FROM scheduled_posts WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, domainSchedule.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}

	approved := unmarshalEmails(raw)
	normalized := strings.ToLower(strings.TrimSpace(email))
	for _, existing := range approved {
		if strings.ToLower(strings.TrimSpace(existing)) == normalized {
			return approved, tx.Commit()
		}
	}
	approved = append(approved, strings.TrimSpace(email))

	data, _ := json.Marshal(approved)
	if _, err := tx.ExecContext(ctx, `UPDATE scheduled_posts SET approved_emails=?, updated_at=? WHERE id=?`, string(data), time.Now().UTC(), id); err != nil {
		return nil, err
	}
	return approved, tx.Commit()
}

func (r *SQLiteRepository) DeleteScheduledPost(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_posts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return domainSchedule.ErrScheduleNotFound
	}
	return nil
}
