package postgres

import (
	"context"
	"database/sql"
	"strings"

	"medipet/internal/domain/preferences"
)

type PreferencesRepo struct {
	db *sql.DB
}

func NewPreferencesRepo(db *sql.DB) *PreferencesRepo {
	return &PreferencesRepo{db: db}
}

func (r *PreferencesRepo) Get(ctx context.Context, ownerUserID string) (preferences.Preferences, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return preferences.Preferences{}, preferences.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			owner_user_id,
			wake_time, sleep_time,
			breakfast_time, lunch_time, dinner_time,
			notification_enabled, notification_sound,
			use_rfid_confirmation, confirmation_window_minutes,
			created_at, updated_at
		FROM user_preferences
		WHERE owner_user_id = $1
	`, ownerUserID)

	var p preferences.Preferences
	if err := row.Scan(
		&p.OwnerUserID,
		&p.WakeTime,
		&p.SleepTime,
		&p.MealTimes.Breakfast,
		&p.MealTimes.Lunch,
		&p.MealTimes.Dinner,
		&p.NotificationEnabled,
		&p.NotificationSound,
		&p.UseRFIDConfirmation,
		&p.ConfirmationWindowMinutes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return preferences.Preferences{}, preferences.ErrNotFound
		}
		return preferences.Preferences{}, err
	}

	return p, nil
}

func (r *PreferencesRepo) Upsert(ctx context.Context, p preferences.Preferences) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_preferences (
			owner_user_id,
			wake_time, sleep_time,
			breakfast_time, lunch_time, dinner_time,
			notification_enabled, notification_sound,
			use_rfid_confirmation, confirmation_window_minutes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (owner_user_id) DO UPDATE
		SET
			wake_time = EXCLUDED.wake_time,
			sleep_time = EXCLUDED.sleep_time,
			breakfast_time = EXCLUDED.breakfast_time,
			lunch_time = EXCLUDED.lunch_time,
			dinner_time = EXCLUDED.dinner_time,
			notification_enabled = EXCLUDED.notification_enabled,
			notification_sound = EXCLUDED.notification_sound,
			use_rfid_confirmation = EXCLUDED.use_rfid_confirmation,
			confirmation_window_minutes = EXCLUDED.confirmation_window_minutes,
			updated_at = EXCLUDED.updated_at
	`,
		p.OwnerUserID,
		p.WakeTime,
		p.SleepTime,
		p.MealTimes.Breakfast,
		p.MealTimes.Lunch,
		p.MealTimes.Dinner,
		p.NotificationEnabled,
		p.NotificationSound,
		p.UseRFIDConfirmation,
		p.ConfirmationWindowMinutes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}
