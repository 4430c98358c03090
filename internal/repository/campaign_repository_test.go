package repository_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davencourt/mailliste-backend/internal/model"
	"github.com/davencourt/mailliste-backend/internal/repository"
)

func TestCampaignGetStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := &repository.CampaignRepository{DB: db}

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM messages WHERE campaign_id=\$1 GROUP BY status`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("sent", 8).
			AddRow("error", 1).
			AddRow("pending", 3))

	stats, err := repo.GetStats(1)
	require.NoError(t, err)
	assert.Equal(t, 12, stats["total"])
	assert.Equal(t, 8, stats["sent"])
	assert.Equal(t, 1, stats["error"])
	assert.Equal(t, 3, stats["pending"])
}

func TestCampaignGetStatsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := &repository.CampaignRepository{DB: db}

	mock.ExpectQuery(`GROUP BY status`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

	stats, err := repo.GetStats(2)
	require.NoError(t, err)
	assert.Equal(t, 0, stats["total"])
	assert.Equal(t, 0, stats["pending"])
}

func TestCampaignCreateJoinsAttachments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := &repository.CampaignRepository{DB: db}

	mock.ExpectQuery(`INSERT INTO campaigns`).
		WithArgs("C", 1, "s", "b", "text", "a.pdf\nb.pdf", true, false, "created").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, time.Now()))

	c := &model.Campaign{
		Name: "C", ListID: 1, Subject: "s", Body: "b", Format: "text",
		Attachments: []string{"a.pdf", "b.pdf"},
		IncludeUnsubscribe: true, Status: "created",
	}
	err = repo.Create(c)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID)
}

func TestCampaignUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := &repository.CampaignRepository{DB: db}

	mock.ExpectExec(`UPDATE campaigns SET status=\$1 WHERE id=\$2`).
		WithArgs("sending", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(5, "sending"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
