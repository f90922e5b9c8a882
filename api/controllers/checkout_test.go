package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/api/middleware"
	"github.com/labstock/labstock-backend/internal/reservations"
	"github.com/labstock/labstock-backend/pkg/enums"
	pkgerrors "github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/pagination"
	"github.com/labstock/labstock-backend/pkg/types"
)

type fakeReservationService struct {
	checkoutResult *reservations.CheckoutResult
	checkoutErr    error
	checkoutCalls  []reservations.CheckoutInput
	checkoutCaller uuid.UUID

	updateResult *reservations.EntryDTO
	updateErr    error
	updateInput  reservations.UpdateStatusInput
	updateActor  uuid.UUID
	updateEntry  uuid.UUID

	outstandingResult *reservations.PartOutstandingDTO
	outstandingErr    error
	outstandingPart   uuid.UUID
}

func (f *fakeReservationService) Checkout(_ context.Context, callerProfileID uuid.UUID, input reservations.CheckoutInput) (*reservations.CheckoutResult, error) {
	f.checkoutCaller = callerProfileID
	f.checkoutCalls = append(f.checkoutCalls, input)
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return f.checkoutResult, nil
}

func (f *fakeReservationService) UpdateStatus(_ context.Context, actorProfileID, entryID uuid.UUID, input reservations.UpdateStatusInput) (*reservations.EntryDTO, error) {
	f.updateActor = actorProfileID
	f.updateEntry = entryID
	f.updateInput = input
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateResult, nil
}

func (f *fakeReservationService) GetEntry(context.Context, uuid.UUID) (*reservations.EntryDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "not implemented")
}

func (f *fakeReservationService) ListMine(context.Context, uuid.UUID, pagination.Params) (*reservations.EntryPage, error) {
	return &reservations.EntryPage{}, nil
}

func (f *fakeReservationService) List(context.Context, reservations.ListFilters, pagination.Params) (*reservations.EntryPage, error) {
	return &reservations.EntryPage{}, nil
}

func (f *fakeReservationService) CountOutstanding(_ context.Context, partID uuid.UUID) (*reservations.PartOutstandingDTO, error) {
	f.outstandingPart = partID
	if f.outstandingErr != nil {
		return nil, f.outstandingErr
	}
	return f.outstandingResult, nil
}

func authedRequest(method, target, body, profileID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if profileID != "" {
		req = req.WithContext(middleware.WithProfileID(req.Context(), profileID))
	}
	return req
}

func decodeEnvelopeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, rec.Body.String())
	}
	return envelope.Error
}

func TestCheckoutReturns201WithResult(t *testing.T) {
	t.Parallel()

	caller := uuid.New()
	partID := uuid.New()
	entryID := uuid.New()
	svc := &fakeReservationService{
		checkoutResult: &reservations.CheckoutResult{
			UnitsReserved: 2,
			EntryIDs:      []uuid.UUID{entryID},
			Lines: []reservations.LineResult{
				{PartID: partID, Requested: 2, Reserved: 2},
			},
		},
	}

	body := `{"items":[{"part_id":"` + partID.String() + `","quantity":2}],"notes":"bench 4"}`
	rec := httptest.NewRecorder()
	Checkout(svc, nil)(rec, authedRequest(http.MethodPost, "/api/v1/checkout", body, caller.String()))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.checkoutCaller != caller {
		t.Fatalf("caller id not forwarded: %s", svc.checkoutCaller)
	}
	if len(svc.checkoutCalls) != 1 {
		t.Fatalf("expected one checkout call, got %d", len(svc.checkoutCalls))
	}
	input := svc.checkoutCalls[0]
	if len(input.Lines) != 1 || input.Lines[0].PartID != partID || input.Lines[0].Quantity != 2 {
		t.Fatalf("lines not forwarded: %#v", input.Lines)
	}
	if input.Notes == nil || *input.Notes != "bench 4" {
		t.Fatalf("notes not forwarded: %v", input.Notes)
	}

	var envelope struct {
		Data reservations.CheckoutResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.UnitsReserved != 2 || len(envelope.Data.EntryIDs) != 1 {
		t.Fatalf("unexpected payload: %#v", envelope.Data)
	}
}

func TestCheckoutMapsOutOfStockTo409(t *testing.T) {
	t.Parallel()

	partID := uuid.New()
	svc := &fakeReservationService{
		checkoutErr: pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
			WithDetails(map[string]any{"units_reserved": 1}),
	}

	body := `{"items":[{"part_id":"` + partID.String() + `","quantity":3}]}`
	rec := httptest.NewRecorder()
	Checkout(svc, nil)(rec, authedRequest(http.MethodPost, "/api/v1/checkout", body, uuid.NewString()))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	apiErr := decodeEnvelopeError(t, rec)
	if apiErr.Code != "OUT_OF_STOCK" {
		t.Fatalf("unexpected code %s", apiErr.Code)
	}
	details, ok := apiErr.Details.(map[string]any)
	if !ok || details["units_reserved"] != float64(1) {
		t.Fatalf("details lost: %#v", apiErr.Details)
	}
}

func TestCheckoutRejectsInvalidBody(t *testing.T) {
	t.Parallel()

	svc := &fakeReservationService{}
	for _, body := range []string{
		`{}`,
		`{"items":[]}`,
		`{"items":[{"part_id":"` + uuid.NewString() + `","quantity":0}]}`,
		`{"items":[{"part_id":"` + uuid.NewString() + `","quantity":1}],"extra":true}`,
	} {
		rec := httptest.NewRecorder()
		Checkout(svc, nil)(rec, authedRequest(http.MethodPost, "/api/v1/checkout", body, uuid.NewString()))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
	if len(svc.checkoutCalls) != 0 {
		t.Fatalf("service must not run for invalid bodies, ran %d times", len(svc.checkoutCalls))
	}
}

func TestCheckoutRequiresProfileContext(t *testing.T) {
	t.Parallel()

	svc := &fakeReservationService{}
	body := `{"items":[{"part_id":"` + uuid.NewString() + `","quantity":1}]}`
	rec := httptest.NewRecorder()
	Checkout(svc, nil)(rec, authedRequest(http.MethodPost, "/api/v1/checkout", body, ""))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(svc.checkoutCalls) != 0 {
		t.Fatal("service must not run without profile context")
	}
}

func TestUpdateReservationStatusForwardsTransition(t *testing.T) {
	t.Parallel()

	actor := uuid.New()
	entryID := uuid.New()
	returned := enums.ReservationStatusReturned
	svc := &fakeReservationService{
		updateResult: &reservations.EntryDTO{ID: entryID, Status: returned},
	}

	mux := newStatusRouter(svc)
	body := `{"status":"returned","admin_remarks":"inspected"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPut, "/reservations/"+entryID.String()+"/status", body, actor.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updateActor != actor || svc.updateEntry != entryID {
		t.Fatalf("identifiers not forwarded: actor %s entry %s", svc.updateActor, svc.updateEntry)
	}
	if svc.updateInput.Status != returned {
		t.Fatalf("status not forwarded: %s", svc.updateInput.Status)
	}
	if svc.updateInput.AdminRemarks == nil || *svc.updateInput.AdminRemarks != "inspected" {
		t.Fatalf("remarks not forwarded: %v", svc.updateInput.AdminRemarks)
	}
}

func TestUpdateReservationStatusRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc := &fakeReservationService{}
	mux := newStatusRouter(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPut, "/reservations/"+uuid.NewString()+"/status", `{"status":"vaporized"}`, uuid.NewString()))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateReservationStatusMapsStateConflictTo422(t *testing.T) {
	t.Parallel()

	svc := &fakeReservationService{
		updateErr: pkgerrors.New(pkgerrors.CodeStateConflict, "entry is in a terminal state").
			WithDetails(map[string]any{"current_status": "lost"}),
	}
	mux := newStatusRouter(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPut, "/reservations/"+uuid.NewString()+"/status", `{"status":"reserved"}`, uuid.NewString()))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	apiErr := decodeEnvelopeError(t, rec)
	if apiErr.Code != "STATE_CONFLICT" {
		t.Fatalf("unexpected code %s", apiErr.Code)
	}
}
