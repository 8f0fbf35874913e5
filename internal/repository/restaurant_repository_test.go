package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/qrbites/qrbites/internal/model"
)

func fullWeek() []model.OpeningHour {
	hours := make([]model.OpeningHour, 7)
	for d := 0; d < 7; d++ {
		hours[d] = model.OpeningHour{Day: d, Opens: "09:00", Closes: "22:00"}
	}
	hours[0].Closed, hours[0].Opens, hours[0].Closes = true, "", ""
	return hours
}

func TestRestaurantCreateInsertsSevenHourRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO restaurants").
		WillReturnResult(sqlmock.NewResult(42, 1))
	for day := 0; day < 7; day++ {
		mock.ExpectExec("INSERT INTO restaurant_hours").
			WithArgs(uint64(42), day, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(int64(day+1), 1))
	}
	now := time.Now()
	mock.ExpectQuery("SELECT is_active, created_at, updated_at FROM restaurants").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "created_at", "updated_at"}).AddRow(true, now, now))
	mock.ExpectCommit()

	rest := &model.Restaurant{
		OwnerID: 7, Name: "Trattoria", Street: "Main", HouseNumber: "1",
		City: "Berlin", Zip: "10115", Hours: fullWeek(),
	}
	repo := NewRestaurantRepo(db)
	if err := repo.Create(context.Background(), rest); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rest.ID != 42 {
		t.Errorf("ID = %d, want 42", rest.ID)
	}
	if !rest.IsActive {
		t.Error("IsActive not populated from select-back")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRestaurantCreateRollsBackOnHoursFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO restaurants").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO restaurant_hours").
		WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	rest := &model.Restaurant{OwnerID: 7, Name: "Trattoria", Hours: fullWeek()}
	repo := NewRestaurantRepo(db)
	if err := repo.Create(context.Background(), rest); err == nil {
		t.Fatal("Create should propagate the hours insert failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// A failed commit must surface as an error so the handler never reports a
// restaurant as created when nothing persisted.
func TestRestaurantCreateCommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO restaurants").
		WillReturnResult(sqlmock.NewResult(42, 1))
	for day := 0; day < 7; day++ {
		mock.ExpectExec("INSERT INTO restaurant_hours").
			WillReturnResult(sqlmock.NewResult(int64(day+1), 1))
	}
	now := time.Now()
	mock.ExpectQuery("SELECT is_active, created_at, updated_at FROM restaurants").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active", "created_at", "updated_at"}).AddRow(true, now, now))
	mock.ExpectCommit().WillReturnError(errors.New("commit failed: deadlock"))

	rest := &model.Restaurant{OwnerID: 7, Name: "Trattoria", Hours: fullWeek()}
	repo := NewRestaurantRepo(db)
	if err := repo.Create(context.Background(), rest); err == nil {
		t.Fatal("Create returned nil although the commit failed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRestaurantDeleteCascades(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM restaurants").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec("DELETE mi FROM menu_items mi").
		WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE img FROM menu_images img").
		WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM menus WHERE restaurant_id").
		WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM restaurant_hours WHERE restaurant_id").
		WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec("DELETE FROM restaurants WHERE id").
		WithArgs(uint64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewRestaurantRepo(db)
	if err := repo.Delete(context.Background(), 9); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRestaurantDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM restaurants").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	repo := NewRestaurantRepo(db)
	if err := repo.Delete(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete missing = %v, want ErrNotFound", err)
	}
}

func TestRestaurantOwnerOf(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT owner_id FROM restaurants").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(77))

	repo := NewRestaurantRepo(db)
	owner, err := repo.OwnerOf(context.Background(), 3)
	if err != nil {
		t.Fatalf("OwnerOf: %v", err)
	}
	if owner != 77 {
		t.Errorf("owner = %d, want 77", owner)
	}

	mock.ExpectQuery("SELECT owner_id FROM restaurants").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))
	if _, err := repo.OwnerOf(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("OwnerOf missing = %v, want ErrNotFound", err)
	}
}
