package dashboard

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"laundry-dashboard/internal/backend"
	"laundry-dashboard/internal/message"
	"laundry-dashboard/internal/model"
	"laundry-dashboard/internal/parse"
	"laundry-dashboard/internal/store"
)

// Mutator is the write side of the backend API.
type Mutator interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	CompleteBooking(ctx context.Context, bookingID model.ID) error
	UpdateMachineStatus(ctx context.Context, machineID model.ID, status model.MachineStatus) (*model.Machine, error)
}

// Refresher starts a refresh cycle without waiting for it.
type Refresher interface {
	RefreshAsync()
}

// ActionRecorder persists the audit trail of forwarded actions.
type ActionRecorder interface {
	RecordAction(ctx context.Context, rec model.ActionRecord) error
}

// Options configures a Controller.
type Options struct {
	Durations       []int
	DefaultDuration int
	SessionTTL      time.Duration
}

// Controller turns user intents into backend calls and builds the views each
// session sees from the store's current snapshot.
type Controller struct {
	store     *store.Store
	api       Mutator
	refresher Refresher
	board     *message.Board
	recorder  ActionRecorder
	sessions  *Sessions

	durations       []int
	defaultDuration int
}

// NewController wires a controller. recorder may be nil.
func NewController(st *store.Store, api Mutator, refresher Refresher, board *message.Board, recorder ActionRecorder, opts Options) *Controller {
	return &Controller{
		store:           st,
		api:             api,
		refresher:       refresher,
		board:           board,
		recorder:        recorder,
		sessions:        NewSessions(opts.SessionTTL, opts.DefaultDuration),
		durations:       slices.Clone(opts.Durations),
		defaultDuration: opts.DefaultDuration,
	}
}

// BookingView is the open booking dialog.
type BookingView struct {
	MachineID     model.ID `json:"machine_id"`
	MachineNumber int      `json:"machine_number"`
	Phase         Phase    `json:"phase"`
	Draft         Draft    `json:"draft"`
	CanSubmit     bool     `json:"can_submit"`
	Durations     []int    `json:"durations"`
}

// View is everything a session's dashboard shows.
type View struct {
	Loading       bool             `json:"loading"`
	Version       uint64           `json:"version"`
	Stats         []StatsCard      `json:"stats"`
	Floors        []int            `json:"floors"`
	SelectedFloor string           `json:"selected_floor"`
	Machines      []MachineCard    `json:"machines"`
	Booking       *BookingView     `json:"booking,omitempty"`
	AdminOpen     bool             `json:"admin_open"`
	Admin         *AdminView       `json:"admin,omitempty"`
	Message       *message.Message `json:"message,omitempty"`
}

// View renders the dashboard for a session from the current snapshot.
func (c *Controller) View(sessionID string) View {
	st := c.store.State()
	sess := c.sessions.Get(sessionID)

	sess.mu.Lock()
	floor := sess.floor
	form := sess.booking
	adminOpen := sess.adminOpen
	sess.mu.Unlock()

	v := View{
		Loading:       !st.Loaded,
		Version:       st.Version,
		Stats:         StatsCards(st.Snapshot.Stats),
		Floors:        Floors(st.Snapshot.Machines),
		SelectedFloor: floor.String(),
		AdminOpen:     adminOpen,
	}

	filtered := FilterMachines(st.Snapshot.Machines, floor)
	v.Machines = make([]MachineCard, 0, len(filtered))
	for _, m := range filtered {
		v.Machines = append(v.Machines, NewMachineCard(m))
	}

	if form.phase == PhaseFormOpen || form.phase == PhaseSubmitting {
		v.Booking = &BookingView{
			MachineID:     form.machine.ID,
			MachineNumber: form.machine.MachineNumber,
			Phase:         form.phase,
			Draft:         form.draft,
			CanSubmit:     form.phase == PhaseFormOpen && form.draft.Complete(),
			Durations:     slices.Clone(c.durations),
		}
	}
	if adminOpen {
		admin := c.Admin()
		v.Admin = &admin
	}
	if msg, ok := c.board.Current(sessionID); ok {
		v.Message = &msg
	}
	return v
}

// Admin renders the admin panel from the current snapshot.
func (c *Controller) Admin() AdminView {
	admin := NewAdminView(c.store.State().Snapshot)
	admin.ActiveSessions = c.sessions.Len()
	return admin
}

// SelectFloor changes the session's floor filter. It never fetches.
func (c *Controller) SelectFloor(sessionID, raw string) error {
	sel, err := parse.ParseFloor(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFloor, err)
	}
	sess := c.sessions.Get(sessionID)
	sess.mu.Lock()
	sess.floor = sel
	sess.mu.Unlock()
	return nil
}

// OpenBooking opens the booking dialog for an available machine with a fresh draft.
func (c *Controller) OpenBooking(sessionID string, machineID model.ID) error {
	machine, ok := c.findMachine(machineID)
	if !ok {
		return ErrUnknownMachine
	}
	sess := c.sessions.Get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.booking.open(machine, c.defaultDuration)
}

// UpdateDraft edits the open booking form.
func (c *Controller) UpdateDraft(sessionID string, patch DraftPatch) error {
	sess := c.sessions.Get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.booking.edit(patch, c.durations)
}

// CloseBooking closes the booking dialog and resets the draft.
func (c *Controller) CloseBooking(sessionID string) {
	sess := c.sessions.Get(sessionID)
	sess.mu.Lock()
	sess.booking.reset(c.defaultDuration)
	sess.mu.Unlock()
}

// SubmitBooking sends the session's draft to the backend. On success the
// dialog closes and a refresh is started; on failure the dialog stays open
// with the draft intact and the backend's reason is shown. The backend call
// outlives a cancelled ctx.
func (c *Controller) SubmitBooking(ctx context.Context, sessionID string) (*model.Booking, error) {
	ctx = context.WithoutCancel(ctx)
	sess := c.sessions.Get(sessionID)

	sess.mu.Lock()
	req, attempt, err := sess.booking.begin(c.durations)
	machineNumber := sess.booking.machine.MachineNumber
	sess.mu.Unlock()
	if err != nil {
		return nil, err
	}

	booking, err := c.api.CreateBooking(ctx, req)

	sess.mu.Lock()
	sess.booking.finish(attempt, err == nil, c.defaultDuration)
	sess.mu.Unlock()

	if err != nil {
		log.Printf("Booking machine %s failed: %v", req.MachineID, err)
		c.board.Post(sessionID, message.KindError, backend.Reason(err))
		c.record(ctx, model.ActionBook, req.MachineID, err)
		return nil, err
	}

	log.Printf("Booked machine %s for %d minutes", req.MachineID, req.Duration)
	c.board.Post(sessionID, message.KindSuccess, fmt.Sprintf("Machine #%d booked successfully", machineNumber))
	c.record(ctx, model.ActionBook, req.MachineID, nil)
	c.refresher.RefreshAsync()
	return booking, nil
}

// NoteRefreshed tells the session a manual refresh went through.
func (c *Controller) NoteRefreshed(sessionID string) {
	c.board.Post(sessionID, message.KindInfo, "Dashboard refreshed")
}

// DismissMessage clears the session's transient message before it expires.
func (c *Controller) DismissMessage(sessionID string) {
	c.board.Dismiss(sessionID)
}

// OpenAdmin shows the admin panel for the session.
func (c *Controller) OpenAdmin(sessionID string) {
	c.setAdmin(sessionID, true)
}

// CloseAdmin hides the admin panel for the session.
func (c *Controller) CloseAdmin(sessionID string) {
	c.setAdmin(sessionID, false)
}

func (c *Controller) setAdmin(sessionID string, open bool) {
	sess := c.sessions.Get(sessionID)
	sess.mu.Lock()
	sess.adminOpen = open
	sess.mu.Unlock()
}

// SetMachineStatus marks a machine available or out of order. A refresh is
// started afterwards whatever the outcome.
func (c *Controller) SetMachineStatus(ctx context.Context, sessionID string, machineID model.ID, raw string) error {
	status, err := model.ParseMachineStatus(raw)
	if err != nil || status == model.StatusInUse {
		return ErrInvalidStatus
	}
	ctx = context.WithoutCancel(ctx)
	defer c.refresher.RefreshAsync()

	if _, err := c.api.UpdateMachineStatus(ctx, machineID, status); err != nil {
		log.Printf("Updating machine %s to %s failed: %v", machineID, status, err)
		c.board.Post(sessionID, message.KindError, backend.Reason(err))
		c.record(ctx, model.ActionSetStatus, machineID, err)
		return err
	}

	log.Printf("Machine %s set to %s", machineID, status)
	c.board.Post(sessionID, message.KindSuccess, "Machine status updated")
	c.record(ctx, model.ActionSetStatus, machineID, nil)
	return nil
}

// CompleteBooking marks a booking finished. Whether the booking belongs to any
// particular machine is left to the backend. A refresh is started afterwards
// whatever the outcome.
func (c *Controller) CompleteBooking(ctx context.Context, sessionID string, bookingID model.ID) error {
	ctx = context.WithoutCancel(ctx)
	defer c.refresher.RefreshAsync()

	if err := c.api.CompleteBooking(ctx, bookingID); err != nil {
		log.Printf("Completing booking %s failed: %v", bookingID, err)
		c.board.Post(sessionID, message.KindError, backend.Reason(err))
		c.record(ctx, model.ActionCompleteBooking, bookingID, err)
		return err
	}

	log.Printf("Booking %s completed", bookingID)
	c.board.Post(sessionID, message.KindSuccess, "Laundry completed")
	c.record(ctx, model.ActionCompleteBooking, bookingID, nil)
	return nil
}

func (c *Controller) findMachine(id model.ID) (model.Machine, bool) {
	for _, m := range c.store.State().Snapshot.Machines {
		if m.ID == id {
			return m, true
		}
	}
	return model.Machine{}, false
}

func (c *Controller) record(ctx context.Context, kind model.ActionKind, target model.ID, err error) {
	if c.recorder == nil {
		return
	}
	rec := model.ActionRecord{
		Kind:      kind,
		TargetID:  target.String(),
		Succeeded: err == nil,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Detail = err.Error()
	}
	if rerr := c.recorder.RecordAction(ctx, rec); rerr != nil {
		log.Printf("Failed to record %s action for %s: %v", kind, target, rerr)
	}
}
