package service

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/psds-microservice/inquiry-service/internal/database"
	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/psds-microservice/inquiry-service/internal/notify"
	"github.com/psds-microservice/inquiry-service/internal/storage"
	"github.com/psds-microservice/inquiry-service/internal/workflow"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Discard))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(e notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type fixture struct {
	svc    *InquiryService
	db     *gorm.DB
	events *recordingPublisher
	dir    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := newTestDB(t)
	dir := t.TempDir()
	files, err := storage.NewLocal(dir, "/uploads", 1<<20)
	require.NoError(t, err)
	events := &recordingPublisher{}
	machine := workflow.NewMachine(workflow.Default()).WithClock(func() time.Time { return fixedNow })
	svc := NewInquiryService(db, machine, files, events)
	svc.now = func() time.Time { return fixedNow }
	return fixture{svc: svc, db: db, events: events, dir: dir}
}

var (
	helpdesk = workflow.Actor{Name: "Lisa Helpdesk", Role: model.RoleHelpdesk}
	produksi = workflow.Actor{Name: "Ahmad Produksi", Role: model.RoleProduksi}
	qc       = workflow.Actor{Name: "Sari QC", Role: model.RoleQC}
	finance  = workflow.Actor{Name: "Lita Finance", Role: model.RoleFinance}
)

func (f fixture) create(t *testing.T, toko string) *model.Inquiry {
	t.Helper()
	inq, err := f.svc.Create(context.Background(), helpdesk, CreateInquiryInput{
		NomorWhatsappCustomer: "081234567890",
		NamaToko:              toko,
		Deskripsi:             "Perbaikan halaman katalog " + toko,
	})
	require.NoError(t, err)
	return inq
}

func pendingFile(name, body string) workflow.Pending {
	return workflow.Pending{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}
