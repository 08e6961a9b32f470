package meetingstore_test

import (
	"errors"
	"testing"

	meetingstore "github.com/moimlabs/moim/internal/app/store/meetings"
	"github.com/moimlabs/moim/internal/domain/models"
	"github.com/moimlabs/moim/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReserveSeat_StopsAtCapacity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	host := f.CreateUser(ctx, "Host", "+821011110000")
	m := f.CreateMeeting(ctx, host, "Board games", 2)

	store := meetingstore.New(db)
	if err := store.ReserveSeat(ctx, m.ID); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := store.ReserveSeat(ctx, m.ID); err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if err := store.ReserveSeat(ctx, m.ID); !errors.Is(err, meetingstore.ErrCapacityFull) {
		t.Fatalf("third reserve = %v, want ErrCapacityFull", err)
	}

	got, err := store.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentParticipants != 2 {
		t.Errorf("current_participants = %d, want 2", got.CurrentParticipants)
	}
}

func TestReserveSeat_MissingMeeting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := meetingstore.New(db).ReserveSeat(ctx, primitive.NewObjectID())
	if !errors.Is(err, meetingstore.ErrMeetingNotFound) {
		t.Fatalf("reserve = %v, want ErrMeetingNotFound", err)
	}
}

func TestReleaseSeats_ClampsAtZero(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	host := f.CreateUser(ctx, "Host", "+821011110001")
	m := f.CreateMeeting(ctx, host, "Book club", 5)

	store := meetingstore.New(db)
	if err := store.ReserveSeat(ctx, m.ID); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// A drifted counter must floor at zero, not go negative.
	if err := store.ReleaseSeats(ctx, m.ID, 3); err != nil {
		t.Fatalf("release: %v", err)
	}
	got, err := store.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentParticipants != 0 {
		t.Errorf("current_participants = %d, want clamped 0", got.CurrentParticipants)
	}
}

func TestCreate_FoldsTitleAndZeroesCounter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := meetingstore.New(db)
	m, err := store.Create(ctx, models.Meeting{
		Title:               "Café Crawl",
		HostID:              primitive.NewObjectID(),
		HostName:            "Host",
		Capacity:            4,
		CurrentParticipants: 99, // must be ignored
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.TitleCI != "cafe crawl" {
		t.Errorf("title_ci = %q, want folded %q", m.TitleCI, "cafe crawl")
	}
	if m.CurrentParticipants != 0 {
		t.Errorf("current_participants = %d, want 0", m.CurrentParticipants)
	}
}

func TestUpdateInfo_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := meetingstore.New(db).UpdateInfo(ctx, primitive.NewObjectID(), meetingstore.MeetingUpdate{Title: "New title"})
	if !errors.Is(err, meetingstore.ErrMeetingNotFound) {
		t.Fatalf("update = %v, want ErrMeetingNotFound", err)
	}
}

func TestListByHost(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	host := f.CreateUser(ctx, "Host", "+821011110002")
	other := f.CreateUser(ctx, "Other", "+821011110003")
	f.CreateMeeting(ctx, host, "Mine A", 4)
	f.CreateMeeting(ctx, host, "Mine B", 4)
	f.CreateMeeting(ctx, other, "Not mine", 4)

	got, err := meetingstore.New(db).ListByHost(ctx, host.ID)
	if err != nil {
		t.Fatalf("list by host: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("hosted meetings = %d, want 2", len(got))
	}
}
