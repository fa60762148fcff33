package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/ledger"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/service"
	"github.com/mmynk/rentroll/internal/storage"
)

// historyMonths is how many months the tenant page shows.
const historyMonths = 12

type dashboardData struct {
	*service.Dashboard
	Buildings []*models.Building
	Today     string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	month, err := s.currentMonth(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	dash, err := s.Payments.Dashboard(ctx, month)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	buildings, err := s.Property.ListBuildings(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	flash := ""
	if r.URL.Query().Get("saved") == "1" {
		flash = "Payment recorded"
	}
	s.render(w, r, http.StatusOK, "dashboard.html", page{
		Title: "Dashboard",
		Flash: flash,
		Data: dashboardData{
			Dashboard: dash,
			Buildings: buildings,
			Today:     s.now().Format(models.DateLayout),
		},
	})
}

// paymentForm reads the payment fields shared by the quick-payment and
// tenant-page forms.
func paymentForm(r *http.Request, tenantID string) (service.PaymentInput, error) {
	in := service.PaymentInput{
		TenantID:     tenantID,
		BillingMonth: strings.TrimSpace(r.FormValue("billing_month")),
		Type:         models.PaymentType(r.FormValue("type")),
		Method:       models.PaymentMethod(r.FormValue("method")),
		Notes:        r.FormValue("notes"),
	}
	var err error
	if in.Amount, err = formDecimal(r, "amount"); err != nil {
		return in, err
	}
	if in.PaidOn, err = formDate(r, "paid_on"); err != nil {
		return in, err
	}
	return in, nil
}

// handleQuickPayment records a payment from the dashboard. The form always
// targets a billing month; when left empty it is the paid-on month.
func (s *Server) handleQuickPayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	in, err := paymentForm(r, r.FormValue("tenant_id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if in.BillingMonth == "" && !in.PaidOn.IsZero() {
		in.BillingMonth = ledger.MonthOf(in.PaidOn).String()
	}

	p, err := s.Payments.RecordPayment(r.Context(), in)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	redirect(w, r, "/management/dashboard?saved=1&month="+url.QueryEscape(p.BillingMonth))
}

type buildingForm struct {
	Input service.BuildingInput
}

func (s *Server) handleNewBuildingPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "building_form.html", page{Title: "New building", Data: buildingForm{}})
}

func (s *Server) handleCreateBuilding(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	in := service.BuildingInput{
		Name:        r.FormValue("name"),
		Address:     r.FormValue("address"),
		Description: r.FormValue("description"),
	}
	b, err := s.Property.CreateBuilding(r.Context(), in)
	if err != nil {
		if status := statusFor(err); status < http.StatusInternalServerError {
			s.render(w, r, status, "building_form.html", page{
				Title: "New building",
				Error: err.Error(),
				Data:  buildingForm{Input: in},
			})
			return
		}
		s.renderError(w, r, err)
		return
	}
	redirect(w, r, "/management/buildings/"+b.ID)
}

type buildingData struct {
	*service.BuildingOverview
	VacantRooms int
}

func (s *Server) handleBuilding(w http.ResponseWriter, r *http.Request) {
	month, err := s.currentMonth(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	overview, err := s.Property.GetBuildingOverview(r.Context(), chi.URLParam(r, "id"), month)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	vacant := 0
	for _, room := range overview.Rooms {
		if !room.IsOccupied {
			vacant++
		}
	}
	s.render(w, r, http.StatusOK, "building.html", page{
		Title: overview.Building.Name,
		Data:  buildingData{BuildingOverview: overview, VacantRooms: vacant},
	})
}

type roomForm struct {
	Building   *models.Building
	RoomNumber string
}

func (s *Server) handleNewRoomPage(w http.ResponseWriter, r *http.Request) {
	b, err := s.Property.GetBuilding(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "room_form.html", page{Title: "Add room", Data: roomForm{Building: b}})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	b, err := s.Property.GetBuilding(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	number := r.FormValue("room_number")
	if _, err := s.Property.AddRoom(ctx, b.ID, number); err != nil {
		if status := statusFor(err); status < http.StatusInternalServerError {
			s.render(w, r, status, "room_form.html", page{
				Title: "Add room",
				Error: err.Error(),
				Data:  roomForm{Building: b, RoomNumber: number},
			})
			return
		}
		s.renderError(w, r, err)
		return
	}
	redirect(w, r, "/management/buildings/"+b.ID)
}

type tenantForm struct {
	Building *models.Building
	Rooms    []*models.Room
	RoomID   string
	Details  service.TenantDetails
}

func (s *Server) tenantFormData(r *http.Request, buildingID string) (tenantForm, error) {
	ctx := r.Context()
	b, err := s.Property.GetBuilding(ctx, buildingID)
	if err != nil {
		return tenantForm{}, err
	}
	rooms, err := s.Property.ListRooms(ctx, buildingID)
	if err != nil {
		return tenantForm{}, err
	}
	vacant := rooms[:0]
	for _, room := range rooms {
		if !room.IsOccupied {
			vacant = append(vacant, room)
		}
	}
	return tenantForm{Building: b, Rooms: vacant, RoomID: r.URL.Query().Get("room")}, nil
}

func (s *Server) handleNewTenantPage(w http.ResponseWriter, r *http.Request) {
	data, err := s.tenantFormData(r, chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	data.Details.AgreementStart = s.now()
	s.render(w, r, http.StatusOK, "tenant_form.html", page{Title: "Add tenant", Data: data})
}

// tenantDetailsForm reads the editable tenant fields.
func tenantDetailsForm(r *http.Request) (service.TenantDetails, error) {
	d := service.TenantDetails{
		Name:  r.FormValue("name"),
		Phone: r.FormValue("phone"),
	}
	if strings.TrimSpace(r.FormValue("rent")) == "" {
		return d, fmt.Errorf("%w: rent is required", service.ErrInvalidInput)
	}
	var err error
	if d.Rent, err = formDecimal(r, "rent"); err != nil {
		return d, err
	}
	if d.Maintenance, err = formDecimal(r, "maintenance"); err != nil {
		return d, err
	}
	if d.AdvancePaid, err = formDecimal(r, "advance"); err != nil {
		return d, err
	}
	if d.AgreementStart, err = formDate(r, "agreement_start"); err != nil {
		return d, err
	}
	if d.AgreementEnd, err = formDate(r, "agreement_end"); err != nil {
		return d, err
	}
	return d, nil
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	buildingID := chi.URLParam(r, "id")
	details, err := tenantDetailsForm(r)
	if err == nil {
		var created *service.CreatedTenant
		created, err = s.Tenants.CreateTenant(r.Context(), service.TenantInput{
			BuildingID:    buildingID,
			RoomID:        r.FormValue("room_id"),
			TenantDetails: details,
		})
		if err == nil {
			s.render(w, r, http.StatusCreated, "tenant_created.html", page{Title: "Tenant added", Data: created})
			return
		}
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError || status == http.StatusNotFound {
		s.renderError(w, r, err)
		return
	}
	data, ferr := s.tenantFormData(r, buildingID)
	if ferr != nil {
		s.renderError(w, r, ferr)
		return
	}
	data.RoomID = r.FormValue("room_id")
	data.Details = details
	s.render(w, r, status, "tenant_form.html", page{Title: "Add tenant", Error: err.Error(), Data: data})
}

type tenantData struct {
	Tenant    *models.TenantView
	Current   ledger.MonthStatus
	History   []ledger.MonthStatus
	Payments  []*models.Payment
	Activity  []eventlog.Event
	Documents []*models.Document
	Today     string
}

func (s *Server) loadTenantData(r *http.Request, id string) (*tenantData, error) {
	ctx := r.Context()
	t, err := s.Tenants.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	month := ledger.MonthOf(s.now())
	history, err := s.Payments.History(ctx, id, month, historyMonths)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	activity, err := s.Tenants.Activity(ctx, id, 20)
	if err != nil {
		return nil, err
	}
	docs, err := s.Documents.List(ctx, id)
	if err != nil {
		return nil, err
	}
	return &tenantData{
		Tenant:    t,
		Current:   history[len(history)-1],
		History:   history,
		Payments:  payments,
		Activity:  activity,
		Documents: docs,
		Today:     s.now().Format(models.DateLayout),
	}, nil
}

type tenantsData struct {
	Buildings  []*models.Building
	BuildingID string
	Tenants    []*models.TenantView
}

func (s *Server) handleTenants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := r.URL.Query().Get("building")
	tenants, err := s.Tenants.ListTenants(ctx, buildingID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	buildings, err := s.Property.ListBuildings(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "tenants.html", page{
		Title: "Tenants",
		Data:  tenantsData{Buildings: buildings, BuildingID: buildingID, Tenants: tenants},
	})
}

func (s *Server) handleTenant(w http.ResponseWriter, r *http.Request) {
	data, err := s.loadTenantData(r, chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "tenant.html", page{Title: data.Tenant.Name, Flash: flashFor(r), Data: data})
}

func flashFor(r *http.Request) string {
	switch r.URL.Query().Get("done") {
	case "updated":
		return "Tenant updated"
	case "payment":
		return "Payment recorded"
	case "payment-deleted":
		return "Payment deleted"
	case "vacated":
		return "Tenant vacated"
	case "uploaded":
		return "Document uploaded"
	case "document-deleted":
		return "Document deleted"
	}
	return ""
}

// renderTenantError re-renders the tenant page with a form error, falling
// back to the error page when the tenant itself cannot be loaded.
func (s *Server) renderTenantError(w http.ResponseWriter, r *http.Request, id string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError || status == http.StatusNotFound {
		s.renderError(w, r, err)
		return
	}
	data, lerr := s.loadTenantData(r, id)
	if lerr != nil {
		s.renderError(w, r, lerr)
		return
	}
	s.render(w, r, status, "tenant.html", page{Title: data.Tenant.Name, Error: err.Error(), Data: data})
}

func tenantURL(id, done string) string {
	return fmt.Sprintf("/management/tenants/%s?done=%s", id, done)
}

func (s *Server) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	details, err := tenantDetailsForm(r)
	if err == nil {
		_, err = s.Tenants.UpdateTenant(r.Context(), id, details)
	}
	if err != nil {
		s.renderTenantError(w, r, id, err)
		return
	}
	redirect(w, r, tenantURL(id, "updated"))
}

// handleRecordPayment records a payment from the tenant page. An empty
// billing month is stored as such so the paid-on date decides.
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	in, err := paymentForm(r, id)
	if err == nil {
		_, err = s.Payments.RecordPayment(r.Context(), in)
	}
	if err != nil {
		s.renderTenantError(w, r, id, err)
		return
	}
	redirect(w, r, tenantURL(id, "payment"))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	paymentID := chi.URLParam(r, "paymentId")
	p, err := s.Payments.GetPayment(ctx, paymentID)
	if err == nil && p.TenantID != id {
		err = fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := s.Payments.DeletePayment(ctx, paymentID); err != nil {
		s.renderTenantError(w, r, id, err)
		return
	}
	redirect(w, r, tenantURL(id, "payment-deleted"))
}

func (s *Server) handleVacateTenant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Tenants.VacateTenant(r.Context(), id); err != nil {
		s.renderTenantError(w, r, id, err)
		return
	}
	redirect(w, r, tenantURL(id, "vacated"))
}

// handleDeleteTenant deletes the tenant (document rows cascade) and then the
// document blobs.
func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	docs, err := s.Documents.List(ctx, id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := s.Tenants.DeleteTenant(ctx, id); err != nil {
		s.renderError(w, r, err)
		return
	}
	s.Documents.RemoveBlobs(ctx, docs)
	redirect(w, r, "/management/tenants")
}

type documentsData struct {
	Tenant    *models.TenantView
	Documents []*models.Document
}

func (s *Server) renderDocuments(w http.ResponseWriter, r *http.Request, status int, id, msg string) {
	ctx := r.Context()
	t, err := s.Tenants.GetTenant(ctx, id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	docs, err := s.Documents.List(ctx, id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, status, "documents.html", page{
		Title: "Documents",
		Flash: flashFor(r),
		Error: msg,
		Data:  documentsData{Tenant: t, Documents: docs},
	})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	s.renderDocuments(w, r, http.StatusOK, chi.URLParam(r, "id"), "")
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.renderDocuments(w, r, http.StatusBadRequest, id, "The file is missing or larger than 10 MB")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderDocuments(w, r, http.StatusBadRequest, id, "Choose a file to upload")
		return
	}
	defer file.Close()

	_, err = s.Documents.Upload(r.Context(), service.DocumentUpload{
		TenantID:    id,
		Label:       r.FormValue("label"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			s.renderError(w, r, err)
			return
		}
		if status >= http.StatusInternalServerError {
			slog.Error("document upload failed", "tenant_id", id, "error", err)
		}
		s.renderDocuments(w, r, status, id, err.Error())
		return
	}
	redirect(w, r, fmt.Sprintf("/management/tenants/%s/documents?done=uploaded", id))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	docID := chi.URLParam(r, "docId")
	doc, err := s.Documents.Get(ctx, docID)
	if err == nil && doc.TenantID != id {
		err = fmt.Errorf("document %s: %w", docID, storage.ErrNotFound)
	}
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := s.Documents.Delete(ctx, docID); err != nil {
		s.renderError(w, r, err)
		return
	}
	redirect(w, r, fmt.Sprintf("/management/tenants/%s/documents?done=document-deleted", id))
}
