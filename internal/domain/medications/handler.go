package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medipet/internal/domain/preferences"
	"medipet/internal/domain/schedule"
	"medipet/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, prefsSvc *preferences.Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))

		mr.Get("/{medID}", getMedicationHandler(svc))
		mr.Patch("/{medID}", updateMedicationHandler(svc))
		mr.Delete("/{medID}", deleteMedicationHandler(svc))

		mr.Put("/{medID}/reminders", setRemindersHandler(svc))
		mr.Get("/{medID}/suggested-schedule", suggestedScheduleHandler(svc, prefsSvc))
		mr.Get("/{medID}/next-dose", nextDoseHandler(svc))
	})

	// Agenda del día (vista calendario)
	r.Get("/schedule/day", dayScheduleHandler(svc))
}

type createMedicationRequest struct {
	DrugName     string `json:"drug_name"`
	Strength     string `json:"strength"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Instructions string `json:"instructions"`
	RxNumber     string `json:"rx_number"`
	Quantity     string `json:"quantity"`
	Refills      string `json:"refills"`
	Pharmacy     string `json:"pharmacy"`
	Prescriber   string `json:"prescriber"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD opcional (default hoy)
	EndDate      string `json:"end_date"`   // YYYY-MM-DD opcional
}

type updateMedicationRequest struct {
	DrugName     *string `json:"drug_name"`
	Strength     *string `json:"strength"`
	Dosage       *string `json:"dosage"`
	Frequency    *string `json:"frequency"`
	Instructions *string `json:"instructions"`
	RxNumber     *string `json:"rx_number"`
	Quantity     *string `json:"quantity"`
	Refills      *string `json:"refills"`
	Pharmacy     *string `json:"pharmacy"`
	Prescriber   *string `json:"prescriber"`
	StartDate    *string `json:"start_date"` // YYYY-MM-DD
	IsActive     *bool   `json:"is_active"`
	// end_date se maneja aparte para distinguir null de ausente.
}

type setRemindersRequest struct {
	// Horas "HH:MM" (24h), máximo 6.
	Times []string `json:"times"`
}

type medicationResponse struct {
	ID           string     `json:"id"`
	OwnerUserID  string     `json:"owner_user_id"`
	DrugName     string     `json:"drug_name"`
	Strength     string     `json:"strength,omitempty"`
	Dosage       string     `json:"dosage,omitempty"`
	Frequency    string     `json:"frequency"`
	Canonical    string     `json:"canonical_frequency"`
	Instructions string     `json:"instructions,omitempty"`
	RxNumber     string     `json:"rx_number,omitempty"`
	Quantity     string     `json:"quantity,omitempty"`
	Refills      string     `json:"refills,omitempty"`
	Pharmacy     string     `json:"pharmacy,omitempty"`
	Prescriber   string     `json:"prescriber,omitempty"`
	StartDate    string     `json:"start_date"`
	EndDate      *string    `json:"end_date,omitempty"`
	Reminders    []string   `json:"reminder_times"`
	RemindersFmt string     `json:"reminder_times_display,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type suggestedScheduleResponse struct {
	TimesPerDay int      `json:"times_per_day"`
	Times       []string `json:"times"`
	Display     string   `json:"display"`
}

type nextDoseResponse struct {
	NextDoseAt *time.Time `json:"next_dose_at"`
	Display    string     `json:"display,omitempty"`
}

type agendaEntryResponse struct {
	MedicationID string    `json:"medication_id"`
	DrugName     string    `json:"drug_name"`
	Dosage       string    `json:"dosage,omitempty"`
	Time         time.Time `json:"time"`
	Display      string    `json:"display"`
}

type dayScheduleResponse struct {
	Date    string                `json:"date"`
	Entries []agendaEntryResponse `json:"entries"`
}

func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var start *time.Time
		if strings.TrimSpace(req.StartDate) != "" {
			t, err := time.Parse("2006-01-02", req.StartDate)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			start = &t
		}

		var end *time.Time
		if strings.TrimSpace(req.EndDate) != "" {
			t, err := time.Parse("2006-01-02", req.EndDate)
			if err != nil {
				http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			end = &t
		}

		m, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			DrugName:     req.DrugName,
			Strength:     req.Strength,
			Dosage:       req.Dosage,
			Frequency:    req.Frequency,
			Instructions: req.Instructions,
			RxNumber:     req.RxNumber,
			Quantity:     req.Quantity,
			Refills:      req.Refills,
			Pharmacy:     req.Pharmacy,
			Prescriber:   req.Prescriber,
			StartDate:    start,
			EndDate:      end,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicationResponse(m))
	}
}

func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicationResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// ownMedication resuelve el medicamento y corta con 404 si no existe o si no
// pertenece al usuario autenticado (no filtramos existencia ajena).
func ownMedication(w http.ResponseWriter, r *http.Request, svc *Service) (Medication, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Medication{}, false
	}

	medID := chi.URLParam(r, "medID")
	m, err := svc.GetByID(r.Context(), medID)
	if err != nil || m.OwnerUserID != claims.UserID {
		http.Error(w, "medication not found", http.StatusNotFound)
		return Medication{}, false
	}
	return m, true
}

func getMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := ownMedication(w, r, svc)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toMedicationResponse(m))
	}
}

func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := ownMedication(w, r, svc)
		if !ok {
			return
		}

		// Decodificamos a map primero para detectar un end_date presente con
		// valor null (= limpiar) y diferenciarlo de "no enviado".
		var raw map[string]json.RawMessage
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updateMedicationRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		in := UpdateInput{
			DrugName:     req.DrugName,
			Strength:     req.Strength,
			Dosage:       req.Dosage,
			Frequency:    req.Frequency,
			Instructions: req.Instructions,
			RxNumber:     req.RxNumber,
			Quantity:     req.Quantity,
			Refills:      req.Refills,
			Pharmacy:     req.Pharmacy,
			Prescriber:   req.Prescriber,
			IsActive:     req.IsActive,
		}

		if req.StartDate != nil {
			t, err := time.Parse("2006-01-02", *req.StartDate)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.StartDate = &t
		}

		if v, exists := raw["end_date"]; exists {
			in.EndDate.Present = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					http.Error(w, "end_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				t, err := time.Parse("2006-01-02", s)
				if err != nil {
					http.Error(w, "end_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				in.EndDate.Value = &t
			}
		}

		updated, err := svc.Update(r.Context(), m.ID, in)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "medication not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toMedicationResponse(updated))
	}
}

func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := ownMedication(w, r, svc)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), m.ID); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setRemindersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := ownMedication(w, r, svc)
		if !ok {
			return
		}

		var req setRemindersRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if len(req.Times) > schedule.MaxRemindersPerDay {
			http.Error(w, "too many reminder times (max 6)", http.StatusBadRequest)
			return
		}

		today := time.Now()
		times := make([]time.Time, 0, len(req.Times))
		for _, s := range req.Times {
			c, err := schedule.ParseClock(s)
			if err != nil {
				http.Error(w, "times must be HH:MM (24h)", http.StatusBadRequest)
				return
			}
			// La fecha es incidental: solo importan hora y minuto.
			times = append(times, c.On(today))
		}

		updated, err := svc.SetReminderTimes(r.Context(), m.ID, times)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toMedicationResponse(updated))
	}
}

func suggestedScheduleHandler(svc *Service, prefsSvc *preferences.Service) http.HandlerFunc {
	// Sugerencia de horario: tomas de la frecuencia repartidas en la ventana
	// despierto del usuario. El caller decide si la persiste (PUT /reminders).
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := ownMedication(w, r, svc)
		if !ok {
			return
		}

		p, err := prefsSvc.Get(r.Context(), m.OwnerUserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		tpd := schedule.TimesPerDay(m.Frequency)
		clocks := schedule.GenerateReminderSchedule(p.WakeTime, p.SleepTime, tpd)

		today := time.Now()
		times := make([]string, 0, len(clocks))
		asDates := make([]time.Time, 0, len(clocks))
		for _, c := range clocks {
			times = append(times, c.String())
			asDates = append(asDates, c.On(today))
		}

		writeJSON(w, http.StatusOK, suggestedScheduleResponse{
			TimesPerDay: tpd,
			Times:       times,
			Display:     schedule.FormatTimeList(asDates),
		})
	}
}

func nextDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := ownMedication(w, r, svc)
		if !ok {
			return
		}

		_, next, has, err := svc.NextDose(r.Context(), m.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := nextDoseResponse{}
		if has {
			resp.NextDoseAt = &next
			resp.Display = schedule.FormatTime(next)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func dayScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		day := time.Now()
		if q := strings.TrimSpace(r.URL.Query().Get("date")); q != "" {
			t, err := time.Parse("2006-01-02", q)
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			day = t
		}

		entries, err := svc.AgendaForDay(r.Context(), claims.UserID, day)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]agendaEntryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, agendaEntryResponse{
				MedicationID: e.Medication.ID,
				DrugName:     e.Medication.DrugName,
				Dosage:       e.Medication.Dosage,
				Time:         e.Time,
				Display:      schedule.FormatTime(e.Time),
			})
		}

		writeJSON(w, http.StatusOK, dayScheduleResponse{
			Date:    day.Format("2006-01-02"),
			Entries: out,
		})
	}
}

func toMedicationResponse(m Medication) medicationResponse {
	reminders := make([]string, 0, len(m.ReminderTimes))
	for _, t := range m.ReminderTimes {
		reminders = append(reminders, schedule.ClockOf(t).String())
	}

	resp := medicationResponse{
		ID:           m.ID,
		OwnerUserID:  m.OwnerUserID,
		DrugName:     m.DrugName,
		Strength:     m.Strength,
		Dosage:       m.Dosage,
		Frequency:    m.Frequency,
		Canonical:    string(schedule.Classify(m.Frequency)),
		Instructions: m.Instructions,
		RxNumber:     m.RxNumber,
		Quantity:     m.Quantity,
		Refills:      m.Refills,
		Pharmacy:     m.Pharmacy,
		Prescriber:   m.Prescriber,
		StartDate:    m.StartDate.Format("2006-01-02"),
		Reminders:    reminders,
		RemindersFmt: schedule.FormatTimeList(m.ReminderTimes),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.EndDate != nil {
		s := m.EndDate.Format("2006-01-02")
		resp.EndDate = &s
	}
	return resp
}

// writeJSON está duplicado intencionalmente en los handlers de cada módulo
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
