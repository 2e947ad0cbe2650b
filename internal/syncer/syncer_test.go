package syncer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/vitalsync/vitalsync/internal/config"
	"github.com/vitalsync/vitalsync/internal/credentials"
	"github.com/vitalsync/vitalsync/internal/models"
	"github.com/vitalsync/vitalsync/internal/whoop"
	"gorm.io/gorm"
)

const emptyPage = `{"records":[],"next_token":null}`

func openSyncTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.AutoMigrate(&models.WhoopCredential{}, &models.DailyMetric{}, &models.WhoopWorkout{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return db
}

func newTestSyncer(t *testing.T, name string, handler http.Handler) (*Syncer, *credentials.Store, *gorm.DB, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	db := openSyncTestDB(t, name)
	store := credentials.NewStore(db)
	tokens := whoop.NewTokenSource(store, config.WhoopConfig{TokenURL: server.URL + "/oauth/token"})
	client := whoop.NewClient(server.URL)
	return New(db, store, tokens, client, 0, 7), store, db, server
}

func connectUser(t *testing.T, store *credentials.Store, userID uint64) {
	t.Helper()
	token := fmt.Sprintf("token-%d", userID)
	if errPut := store.Put(context.Background(), userID, token, "refresh-"+token, 3600, nil); errPut != nil {
		t.Fatalf("connect user %d: %v", userID, errPut)
	}
}

// metricsHandler serves one scored cycle with matching recovery and sleep.
func metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/cycle":
			fmt.Fprint(w, `{"records":[{"id":101,"user_id":42,"start":"2026-08-05T06:00:00Z","end":"2026-08-06T06:00:00Z","score_state":"SCORED","score":{"strain":14.5,"kilojoule":9000,"average_heart_rate":70,"max_heart_rate":165}}],"next_token":null}`)
		case "/v1/recovery":
			fmt.Fprint(w, `{"records":[{"cycle_id":101,"sleep_id":"s-1","user_id":42,"score_state":"SCORED","score":{"recovery_score":67,"resting_heart_rate":52.5,"hrv_rmssd_milli":48.2,"spo2_percentage":97.1,"skin_temp_celsius":33.4}}],"next_token":null}`)
		case "/v1/activity/sleep":
			fmt.Fprint(w, `{"records":[{"id":"s-1","cycle_id":101,"user_id":42,"start":"2026-08-04T22:00:00Z","end":"2026-08-05T06:00:00Z","nap":false,"score_state":"SCORED","score":{"stage_summary":{"total_light_sleep_time_milli":1200000,"total_slow_wave_sleep_time_milli":900000,"total_rem_sleep_time_milli":600000},"sleep_performance_percentage":88.6}}],"next_token":null}`)
		default:
			fmt.Fprint(w, emptyPage)
		}
	})
}

func TestSyncUserMetrics_UpsertsOneRowPerDate(t *testing.T) {
	syncer, store, db, _ := newTestSyncer(t, "syncer_metrics", metricsHandler())
	connectUser(t, store, 1)

	for run := 0; run < 2; run++ {
		count, errSync := syncer.SyncUserMetrics(context.Background(), 1, "2026-08-01", "2026-08-07")
		if errSync != nil {
			t.Fatalf("sync run %d: %v", run, errSync)
		}
		if count != 1 {
			t.Fatalf("expected 1 row upserted on run %d, got %d", run, count)
		}
	}

	var rows []models.DailyMetric
	if errFind := db.Find(&rows).Error; errFind != nil {
		t.Fatalf("find: %v", errFind)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after re-sync, got %d", len(rows))
	}

	row := rows[0]
	if row.Date != "2026-08-05" {
		t.Fatalf("unexpected date: %s", row.Date)
	}
	if row.CycleID == nil || *row.CycleID != 101 {
		t.Fatal("expected cycle id 101")
	}
	if row.Strain == nil || *row.Strain != 14.5 {
		t.Fatal("expected strain 14.5")
	}
	if row.RecoveryScore == nil || *row.RecoveryScore != 67 {
		t.Fatal("expected recovery score 67")
	}
	if row.HRVMilli == nil || *row.HRVMilli != 48.2 {
		t.Fatal("expected hrv 48.2")
	}
	// 20m light + 15m slow-wave + 10m REM.
	if row.SleepDurationMinutes == nil || *row.SleepDurationMinutes != 45 {
		t.Fatal("expected 45 minutes of sleep")
	}
	if row.SleepScore == nil || *row.SleepScore != 89 {
		t.Fatal("expected sleep score rounded to 89")
	}
	if len(row.Raw) == 0 {
		t.Fatal("expected raw payload stored")
	}
}

func TestSyncUserMetrics_NoCycles(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, emptyPage)
	})
	syncer, store, db, _ := newTestSyncer(t, "syncer_empty", handler)
	connectUser(t, store, 1)

	count, errSync := syncer.SyncUserMetrics(context.Background(), 1, "2026-08-01", "2026-08-07")
	if errSync != nil {
		t.Fatalf("sync: %v", errSync)
	}
	if count != 0 {
		t.Fatalf("expected 0 rows, got %d", count)
	}

	var rows int64
	if errCount := db.Model(&models.DailyMetric{}).Count(&rows).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if rows != 0 {
		t.Fatalf("expected no rows written, got %d", rows)
	}
}

func TestSyncUserMetrics_CycleWithoutRecovery(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/cycle" {
			fmt.Fprint(w, `{"records":[{"id":200,"user_id":42,"start":"2026-08-06T06:00:00Z","score_state":"PENDING_SCORE"}],"next_token":null}`)
			return
		}
		fmt.Fprint(w, emptyPage)
	})
	syncer, store, db, _ := newTestSyncer(t, "syncer_partial", handler)
	connectUser(t, store, 1)

	count, errSync := syncer.SyncUserMetrics(context.Background(), 1, "2026-08-01", "2026-08-07")
	if errSync != nil {
		t.Fatalf("sync: %v", errSync)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	var row models.DailyMetric
	if errFind := db.First(&row).Error; errFind != nil {
		t.Fatalf("find: %v", errFind)
	}
	if row.Strain != nil || row.RecoveryScore != nil || row.SleepDurationMinutes != nil {
		t.Fatal("expected unscored fields to stay null")
	}
	if row.CycleID == nil || *row.CycleID != 200 {
		t.Fatal("expected cycle id 200")
	}
}

func TestSyncUserWorkouts_Idempotent(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/activity/workout" {
			fmt.Fprint(w, `{"records":[{"id":"w-1","user_id":42,"start":"2026-08-05T09:00:00Z","end":"2026-08-05T10:00:00Z","sport_name":"running","score_state":"SCORED","score":{"strain":9.1,"average_heart_rate":140,"max_heart_rate":172,"kilojoule":2000,"distance_meter":8012.5}},{"id":"w-2","user_id":42,"start":"2026-08-06T09:00:00Z","end":"2026-08-06T09:40:00Z","sport_name":"cycling","score_state":"SCORED","score":{"strain":6.2,"average_heart_rate":120,"max_heart_rate":150,"kilojoule":1100,"distance_meter":null}}],"next_token":null}`)
			return
		}
		fmt.Fprint(w, emptyPage)
	})
	syncer, store, db, _ := newTestSyncer(t, "syncer_workouts", handler)
	connectUser(t, store, 1)

	for run := 0; run < 2; run++ {
		count, errSync := syncer.SyncUserWorkouts(context.Background(), 1, "2026-08-01", "2026-08-07")
		if errSync != nil {
			t.Fatalf("sync run %d: %v", run, errSync)
		}
		if count != 2 {
			t.Fatalf("expected 2 rows on run %d, got %d", run, count)
		}
	}

	var rows []models.WhoopWorkout
	if errFind := db.Order("workout_id ASC").Find(&rows).Error; errFind != nil {
		t.Fatalf("find: %v", errFind)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after re-sync, got %d", len(rows))
	}
	if rows[0].SportName != "running" || rows[0].DistanceMeter == nil || *rows[0].DistanceMeter != 8012.5 {
		t.Fatalf("unexpected first workout: %+v", rows[0])
	}
	if rows[1].DistanceMeter != nil {
		t.Fatal("expected nil distance for second workout")
	}
}

func TestSyncAllUsers_IsolatesFailures(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// User 2's token is rejected; other users sync normally.
		if r.Header.Get("Authorization") == "Bearer token-2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, emptyPage)
	})
	syncer, store, _, _ := newTestSyncer(t, "syncer_batch", handler)
	for _, userID := range []uint64{1, 2, 3} {
		connectUser(t, store, userID)
	}

	report := syncer.SyncAllUsers(context.Background())
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("expected 2 succeeded and 1 failed, got %+v", report)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
	for _, result := range report.Results {
		if result.UserID == 2 && result.Error == "" {
			t.Fatal("expected error for user 2")
		}
		if result.UserID != 2 && result.Error != "" {
			t.Fatalf("unexpected error for user %d: %s", result.UserID, result.Error)
		}
	}
}

func TestWindow(t *testing.T) {
	syncer := New(nil, nil, nil, nil, 0, 7)
	syncer.now = func() time.Time {
		return time.Date(2026, 8, 7, 15, 0, 0, 0, time.UTC)
	}

	startDate, endDate := syncer.Window()
	if startDate != "2026-08-01" || endDate != "2026-08-07" {
		t.Fatalf("unexpected window: %s..%s", startDate, endDate)
	}
}
