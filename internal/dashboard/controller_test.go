package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-dashboard/config"
	"laundry-dashboard/internal/backend"
	"laundry-dashboard/internal/message"
	"laundry-dashboard/internal/model"
	"laundry-dashboard/internal/store"
)

// mockMutator is a mock implementation of the Mutator interface.
type mockMutator struct {
	CreateBookingFunc       func(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	CompleteBookingFunc     func(ctx context.Context, bookingID model.ID) error
	UpdateMachineStatusFunc func(ctx context.Context, machineID model.ID, status model.MachineStatus) (*model.Machine, error)
}

func (m *mockMutator) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	return m.CreateBookingFunc(ctx, req)
}

func (m *mockMutator) CompleteBooking(ctx context.Context, bookingID model.ID) error {
	return m.CompleteBookingFunc(ctx, bookingID)
}

func (m *mockMutator) UpdateMachineStatus(ctx context.Context, machineID model.ID, status model.MachineStatus) (*model.Machine, error) {
	return m.UpdateMachineStatusFunc(ctx, machineID, status)
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) RefreshAsync() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func (r *countingRefresher) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []model.ActionRecord
}

func (r *memoryRecorder) RecordAction(_ context.Context, rec model.ActionRecord) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	return nil
}

type fixture struct {
	store     *store.Store
	api       *mockMutator
	refresher *countingRefresher
	recorder  *memoryRecorder
	ctrl      *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     store.New(store.LastWriterWins),
		api:       &mockMutator{},
		refresher: &countingRefresher{},
		recorder:  &memoryRecorder{},
	}
	f.store.Replace(1, model.Snapshot{
		Machines: sampleMachines(),
		Stats:    model.Stats{TotalMachines: 7, AvailableMachines: 4, InUseMachines: 2, OutOfOrderMachines: 1, UsageRate: 28.6},
		Bookings: []model.Booking{{ID: "12", MachineID: "5", StudentName: "Student B", StudentRoom: "B205", Duration: 45}},
	})
	f.ctrl = NewController(f.store, f.api, f.refresher, message.NewBoard(time.Minute), f.recorder, Options{
		Durations:       []int{30, 45, 60, 90},
		DefaultDuration: 60,
		SessionTTL:      time.Minute,
	})
	return f
}

func (f *fixture) fillDraft(t *testing.T, session, name, room string, duration int) {
	t.Helper()
	require.NoError(t, f.ctrl.UpdateDraft(session, DraftPatch{StudentName: &name, StudentRoom: &room, Duration: &duration}))
}

func TestController_View(t *testing.T) {
	f := newFixture(t)

	v := f.ctrl.View("s1")
	assert.False(t, v.Loading)
	assert.Equal(t, uint64(1), v.Version)
	assert.Equal(t, []int{1, 2, 10}, v.Floors)
	assert.Equal(t, "all", v.SelectedFloor)
	assert.Len(t, v.Machines, 7)
	assert.Nil(t, v.Booking)
	assert.Nil(t, v.Admin)
	assert.Nil(t, v.Message)

	require.NoError(t, f.ctrl.SelectFloor("s1", "2"))
	v = f.ctrl.View("s1")
	assert.Equal(t, "2", v.SelectedFloor)
	require.Len(t, v.Machines, 2)
	assert.Equal(t, 5, v.Machines[0].MachineNumber)
	assert.Equal(t, 6, v.Machines[1].MachineNumber)
	assert.Equal(t, []int{1, 2, 10}, v.Floors, "floor list ignores the filter")

	err := f.ctrl.SelectFloor("s1", "roof")
	assert.ErrorIs(t, err, ErrInvalidFloor)
	assert.Equal(t, "2", f.ctrl.View("s1").SelectedFloor, "invalid selection keeps the previous one")

	assert.Equal(t, "all", f.ctrl.View("s2").SelectedFloor, "sessions are independent")
	assert.Zero(t, f.refresher.Calls(), "filtering never fetches")
}

func TestController_ViewBeforeFirstSnapshot(t *testing.T) {
	ctrl := NewController(store.New(store.LastWriterWins), &mockMutator{}, &countingRefresher{}, message.NewBoard(time.Minute), nil, Options{
		Durations: []int{30, 45, 60, 90}, DefaultDuration: 60, SessionTTL: time.Minute,
	})

	v := ctrl.View("s1")
	assert.True(t, v.Loading)
	assert.Empty(t, v.Machines)
	assert.Empty(t, v.Floors)
}

func TestController_BookingGate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.OpenBooking("s1", "3"))

	v := f.ctrl.View("s1")
	require.NotNil(t, v.Booking)
	assert.Equal(t, PhaseFormOpen, v.Booking.Phase)
	assert.Equal(t, Draft{Duration: 60}, v.Booking.Draft)
	assert.False(t, v.Booking.CanSubmit)

	for _, duration := range []int{30, 45, 60, 90} {
		for _, name := range []string{"", "Somchai"} {
			for _, room := range []string{"", "A101"} {
				f.fillDraft(t, "s1", name, room, duration)
				want := name != "" && room != ""
				assert.Equal(t, want, f.ctrl.View("s1").Booking.CanSubmit, "name=%q room=%q duration=%d", name, room, duration)
			}
		}
	}

	bad := 50
	assert.ErrorIs(t, f.ctrl.UpdateDraft("s1", DraftPatch{Duration: &bad}), ErrInvalidDuration)
	assert.Equal(t, 90, f.ctrl.View("s1").Booking.Draft.Duration)

	f.fillDraft(t, "s1", "", "A101", 45)
	_, err := f.ctrl.SubmitBooking(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrDraftIncomplete)
}

func TestController_OpenBookingRequiresAvailableMachine(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.ctrl.OpenBooking("s1", "2"), ErrMachineNotAvailable)
	assert.ErrorIs(t, f.ctrl.OpenBooking("s1", "4"), ErrMachineNotAvailable)
	assert.ErrorIs(t, f.ctrl.OpenBooking("s1", "404"), ErrUnknownMachine)
	assert.Nil(t, f.ctrl.View("s1").Booking)

	_, err := f.ctrl.SubmitBooking(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNoBookingOpen)
	assert.ErrorIs(t, f.ctrl.UpdateDraft("s1", DraftPatch{}), ErrNoBookingOpen)
}

func TestController_SubmitBooking_Success(t *testing.T) {
	f := newFixture(t)
	var sent model.BookingRequest
	f.api.CreateBookingFunc = func(_ context.Context, req model.BookingRequest) (*model.Booking, error) {
		sent = req
		return &model.Booking{ID: "99", MachineID: req.MachineID, StudentName: req.StudentName, StudentRoom: req.StudentRoom, Duration: req.Duration}, nil
	}

	require.NoError(t, f.ctrl.OpenBooking("s1", "3"))
	f.fillDraft(t, "s1", "Somchai", "A101", 45)

	booking, err := f.ctrl.SubmitBooking(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.ID("99"), booking.ID)
	assert.Equal(t, model.BookingRequest{MachineID: "3", StudentName: "Somchai", StudentRoom: "A101", Duration: 45}, sent)

	v := f.ctrl.View("s1")
	assert.Nil(t, v.Booking, "dialog closes on success")
	require.NotNil(t, v.Message)
	assert.Equal(t, message.KindSuccess, v.Message.Kind)
	assert.Equal(t, "Machine #3 booked successfully", v.Message.Text)
	assert.Equal(t, 1, f.refresher.Calls())

	// not optimistic: the card stays available until the refresh lands
	assert.True(t, v.Machines[2].CanBook)

	require.NoError(t, f.ctrl.OpenBooking("s1", "1"))
	assert.Equal(t, Draft{Duration: 60}, f.ctrl.View("s1").Booking.Draft, "draft resets to defaults")

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, model.ActionBook, f.recorder.records[0].Kind)
	assert.Equal(t, "3", f.recorder.records[0].TargetID)
	assert.True(t, f.recorder.records[0].Succeeded)
}

func TestController_SubmitBooking_Failure(t *testing.T) {
	f := newFixture(t)
	f.api.CreateBookingFunc = func(context.Context, model.BookingRequest) (*model.Booking, error) {
		return nil, &backend.Error{Op: backend.OpCreateBooking, StatusCode: 400, Detail: "Machine already booked"}
	}

	require.NoError(t, f.ctrl.OpenBooking("s1", "3"))
	f.fillDraft(t, "s1", "Somchai", "A101", 45)

	_, err := f.ctrl.SubmitBooking(context.Background(), "s1")
	require.Error(t, err)

	v := f.ctrl.View("s1")
	require.NotNil(t, v.Booking, "dialog stays open on failure")
	assert.Equal(t, PhaseFormOpen, v.Booking.Phase)
	assert.Equal(t, Draft{StudentName: "Somchai", StudentRoom: "A101", Duration: 45}, v.Booking.Draft)
	assert.True(t, v.Booking.CanSubmit)
	require.NotNil(t, v.Message)
	assert.Equal(t, "Machine already booked", v.Message.Text)
	assert.Equal(t, message.KindError, v.Message.Kind)
	assert.Zero(t, f.refresher.Calls())

	require.Len(t, f.recorder.records, 1)
	assert.False(t, f.recorder.records[0].Succeeded)
}

func TestController_SubmitBooking_GenericFailure(t *testing.T) {
	f := newFixture(t)
	f.api.CreateBookingFunc = func(context.Context, model.BookingRequest) (*model.Booking, error) {
		return nil, &backend.Error{Op: backend.OpCreateBooking, Err: errors.New("connection reset")}
	}

	require.NoError(t, f.ctrl.OpenBooking("s1", "3"))
	f.fillDraft(t, "s1", "Somchai", "A101", 45)
	_, err := f.ctrl.SubmitBooking(context.Background(), "s1")
	require.Error(t, err)

	assert.Equal(t, "booking failed", f.ctrl.View("s1").Message.Text)
}

func TestController_SubmitBooking_InFlight(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.CreateBookingFunc = func(_ context.Context, req model.BookingRequest) (*model.Booking, error) {
		close(entered)
		<-release
		return &model.Booking{ID: "99", MachineID: req.MachineID}, nil
	}

	require.NoError(t, f.ctrl.OpenBooking("s1", "3"))
	f.fillDraft(t, "s1", "Somchai", "A101", 45)

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.SubmitBooking(context.Background(), "s1")
		done <- err
	}()
	<-entered

	v := f.ctrl.View("s1")
	require.NotNil(t, v.Booking)
	assert.Equal(t, PhaseSubmitting, v.Booking.Phase)
	assert.False(t, v.Booking.CanSubmit)

	_, err := f.ctrl.SubmitBooking(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	name := "Other"
	assert.ErrorIs(t, f.ctrl.UpdateDraft("s1", DraftPatch{StudentName: &name}), ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Nil(t, f.ctrl.View("s1").Booking)
}

func TestController_SubmitBooking_OutlivesCaller(t *testing.T) {
	f := newFixture(t)
	var created atomic.Int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		created.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":99,"machine_id":3,"student_name":"Somchai","student_room":"A101","duration":45,"status":"active"}`))
	}))
	defer slow.Close()
	f.ctrl.api = backend.NewClient(config.BackendConfig{BaseURL: slow.URL})

	require.NoError(t, f.ctrl.OpenBooking("s1", "3"))
	f.fillDraft(t, "s1", "Somchai", "A101", 45)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	booking, err := f.ctrl.SubmitBooking(ctx, "s1")
	require.NoError(t, err, "a departed caller does not abort the backend call")
	assert.Equal(t, model.ID("99"), booking.ID)
	assert.Equal(t, int32(1), created.Load())

	assert.Nil(t, f.ctrl.View("s1").Booking)
	assert.Equal(t, 1, f.refresher.Calls())
	require.Len(t, f.recorder.records, 1)
	assert.True(t, f.recorder.records[0].Succeeded)
}

func TestController_AdminActionsIgnoreCallerCancel(t *testing.T) {
	f := newFixture(t)
	f.api.UpdateMachineStatusFunc = func(ctx context.Context, id model.ID, status model.MachineStatus) (*model.Machine, error) {
		require.NoError(t, ctx.Err())
		return &model.Machine{ID: id, Status: status}, nil
	}
	f.api.CompleteBookingFunc = func(ctx context.Context, _ model.ID) error {
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.ctrl.SetMachineStatus(ctx, "admin", "5", "out_of_order"))
	assert.NoError(t, f.ctrl.CompleteBooking(ctx, "admin", "12"))
	assert.Equal(t, 2, f.refresher.Calls())
	for _, rec := range f.recorder.records {
		assert.True(t, rec.Succeeded, rec.Kind)
	}
}

func TestController_ActiveSessions(t *testing.T) {
	f := newFixture(t)
	f.ctrl.View("s1")
	f.ctrl.OpenAdmin("s2")

	assert.Equal(t, 2, f.ctrl.Admin().ActiveSessions)
	v := f.ctrl.View("s2")
	require.NotNil(t, v.Admin)
	assert.Equal(t, 2, v.Admin.ActiveSessions)
}

func TestController_NoteRefreshed(t *testing.T) {
	f := newFixture(t)
	f.ctrl.NoteRefreshed("s1")

	v := f.ctrl.View("s1")
	require.NotNil(t, v.Message)
	assert.Equal(t, message.KindInfo, v.Message.Kind)
	assert.Nil(t, f.ctrl.View("s2").Message)

	f.ctrl.DismissMessage("s1")
	assert.Nil(t, f.ctrl.View("s1").Message)
}

func TestController_CloseDuringSubmitStaysClosed(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.CreateBookingFunc = func(context.Context, model.BookingRequest) (*model.Booking, error) {
		close(entered)
		<-release
		return nil, &backend.Error{Op: backend.OpCreateBooking, StatusCode: 400, Detail: "Machine is not available"}
	}

	require.NoError(t, f.ctrl.OpenBooking("s1", "3"))
	f.fillDraft(t, "s1", "Somchai", "A101", 45)

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.SubmitBooking(context.Background(), "s1")
		done <- err
	}()
	<-entered
	f.ctrl.CloseBooking("s1")
	close(release)
	require.Error(t, <-done)

	v := f.ctrl.View("s1")
	assert.Nil(t, v.Booking)
	assert.Equal(t, "Machine is not available", v.Message.Text)
}

func TestController_SetMachineStatus(t *testing.T) {
	f := newFixture(t)
	var gotID model.ID
	var gotStatus model.MachineStatus
	f.api.UpdateMachineStatusFunc = func(_ context.Context, id model.ID, status model.MachineStatus) (*model.Machine, error) {
		gotID, gotStatus = id, status
		return &model.Machine{ID: id, Status: status}, nil
	}

	require.NoError(t, f.ctrl.SetMachineStatus(context.Background(), "admin", "6", "out_of_order"))
	assert.Equal(t, model.ID("6"), gotID)
	assert.Equal(t, model.StatusOutOfOrder, gotStatus)
	assert.Equal(t, 1, f.refresher.Calls())
	assert.Equal(t, "Machine status updated", f.ctrl.View("admin").Message.Text)

	// the next refresh carries the new status and the card stops offering a booking
	snap := f.store.State().Snapshot
	snap.Machines[5].Status = model.StatusOutOfOrder
	f.store.Replace(2, snap)

	v := f.ctrl.View("student")
	assert.Equal(t, model.StatusOutOfOrder, v.Machines[5].Status)
	assert.False(t, v.Machines[5].CanBook)
	assert.ErrorIs(t, f.ctrl.OpenBooking("student", "6"), ErrMachineNotAvailable)

	assert.ErrorIs(t, f.ctrl.SetMachineStatus(context.Background(), "admin", "6", "in_use"), ErrInvalidStatus)
	assert.ErrorIs(t, f.ctrl.SetMachineStatus(context.Background(), "admin", "6", "broken"), ErrInvalidStatus)
	assert.Equal(t, 1, f.refresher.Calls(), "rejected input never reaches the backend")
}

func TestController_SetMachineStatus_FailureStillRefreshes(t *testing.T) {
	f := newFixture(t)
	f.api.UpdateMachineStatusFunc = func(context.Context, model.ID, model.MachineStatus) (*model.Machine, error) {
		return nil, &backend.Error{Op: backend.OpUpdateMachineStatus, StatusCode: 404, Detail: "Machine not found"}
	}

	err := f.ctrl.SetMachineStatus(context.Background(), "admin", "404", "available")
	require.Error(t, err)
	assert.Equal(t, 1, f.refresher.Calls())
	assert.Equal(t, "failed to update status", f.ctrl.View("admin").Message.Text)
}

func TestController_CompleteBooking(t *testing.T) {
	f := newFixture(t)
	var completed []model.ID
	f.api.CompleteBookingFunc = func(_ context.Context, id model.ID) error {
		if id == "404" {
			return &backend.Error{Op: backend.OpCompleteBooking, StatusCode: 404, Detail: "Booking not found"}
		}
		completed = append(completed, id)
		return nil
	}

	require.NoError(t, f.ctrl.CompleteBooking(context.Background(), "admin", "12"))
	assert.Equal(t, []model.ID{"12"}, completed)
	assert.Equal(t, 1, f.refresher.Calls())

	snap := f.store.State().Snapshot
	snap.Bookings = nil
	snap.Machines[4].Status = model.StatusAvailable
	f.store.Replace(2, snap)
	for _, row := range f.ctrl.Admin().Bookings {
		assert.NotEqual(t, model.ID("12"), row.ID)
	}

	assert.Error(t, f.ctrl.CompleteBooking(context.Background(), "admin", "404"))
	assert.Equal(t, 2, f.refresher.Calls())
	assert.Len(t, f.recorder.records, 2)
}

func TestController_AdminPanel(t *testing.T) {
	f := newFixture(t)

	f.ctrl.OpenAdmin("s1")
	v := f.ctrl.View("s1")
	assert.True(t, v.AdminOpen)
	require.NotNil(t, v.Admin)
	require.Len(t, v.Admin.Bookings, 1)
	assert.Equal(t, 5, *v.Admin.Bookings[0].MachineNumber)

	f.ctrl.CloseAdmin("s1")
	v = f.ctrl.View("s1")
	assert.False(t, v.AdminOpen)
	assert.Nil(t, v.Admin)
}
