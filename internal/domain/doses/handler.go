package doses

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medipet/internal/domain/medications"
	"medipet/internal/domain/preferences"
	"medipet/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, medsSvc *medications.Service, prefsSvc *preferences.Service) {
	r.Route("/medications/{medID}/doses", func(dr chi.Router) {
		dr.Post("/confirm", confirmDoseHandler(svc, medsSvc, prefsSvc))
		dr.Post("/skip", skipDoseHandler(svc, medsSvc))
		dr.Get("/", listDosesHandler(svc, medsSvc))
	})

	r.Get("/stats", statsHandler(svc, medsSvc))
}

type confirmDoseRequest struct {
	ScheduledAt time.Time  `json:"scheduled_at"`
	TakenAt     *time.Time `json:"taken_at"` // opcional, default ahora
}

type skipDoseRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

type doseResponse struct {
	ID           string     `json:"id"`
	MedicationID string     `json:"medication_id"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	Status       string     `json:"status"`
	TakenAt      *time.Time `json:"taken_at,omitempty"`
	RecordedAt   time.Time  `json:"recorded_at"`
}

type statsResponse struct {
	TotalMedications    int `json:"total_medications"`
	AdherencePercentage int `json:"adherence_percentage"`
	CurrentStreak       int `json:"current_streak"`
	LongestStreak       int `json:"longest_streak"`
	MissedDoses         int `json:"missed_doses"`
	OnTimeDoses         int `json:"on_time_doses"`
}

// ownMedication corta con 404 si el medicamento no existe o no es del usuario.
func ownMedication(w http.ResponseWriter, r *http.Request, medsSvc *medications.Service) (medications.Medication, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return medications.Medication{}, false
	}

	medID := chi.URLParam(r, "medID")
	m, err := medsSvc.GetByID(r.Context(), medID)
	if err != nil || m.OwnerUserID != claims.UserID {
		http.Error(w, "medication not found", http.StatusNotFound)
		return medications.Medication{}, false
	}
	return m, true
}

func confirmDoseHandler(svc *Service, medsSvc *medications.Service, prefsSvc *preferences.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := ownMedication(w, r, medsSvc)
		if !ok {
			return
		}

		var req confirmDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := prefsSvc.Get(r.Context(), m.OwnerUserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		in := ConfirmInput{
			MedicationID:  m.ID,
			OwnerUserID:   m.OwnerUserID,
			ScheduledAt:   req.ScheduledAt,
			WindowMinutes: p.ConfirmationWindowMinutes,
		}
		if req.TakenAt != nil {
			in.TakenAt = *req.TakenAt
		}

		d, err := svc.Confirm(r.Context(), in)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, "scheduled_at is required", http.StatusBadRequest)
			case errors.Is(err, ErrAlreadyRecorded):
				http.Error(w, "dose already recorded", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toDoseResponse(d))
	}
}

func skipDoseHandler(svc *Service, medsSvc *medications.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := ownMedication(w, r, medsSvc)
		if !ok {
			return
		}

		var req skipDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		d, err := svc.Skip(r.Context(), m.ID, m.OwnerUserID, req.ScheduledAt)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, "scheduled_at is required", http.StatusBadRequest)
			case errors.Is(err, ErrAlreadyRecorded):
				http.Error(w, "dose already recorded", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toDoseResponse(d))
	}
}

func listDosesHandler(svc *Service, medsSvc *medications.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := ownMedication(w, r, medsSvc)
		if !ok {
			return
		}

		items, err := svc.ListByMedication(r.Context(), m.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]doseResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDoseResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func statsHandler(svc *Service, medsSvc *medications.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		st, err := svc.Stats(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		meds, err := medsSvc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		st.TotalMedications = len(meds)

		writeJSON(w, http.StatusOK, statsResponse{
			TotalMedications:    st.TotalMedications,
			AdherencePercentage: st.AdherencePercentage,
			CurrentStreak:       st.CurrentStreak,
			LongestStreak:       st.LongestStreak,
			MissedDoses:         st.MissedDoses,
			OnTimeDoses:         st.OnTimeDoses,
		})
	}
}

func toDoseResponse(d Dose) doseResponse {
	return doseResponse{
		ID:           d.ID,
		MedicationID: d.MedicationID,
		ScheduledAt:  d.ScheduledAt,
		Status:       string(d.Status),
		TakenAt:      d.TakenAt,
		RecordedAt:   d.RecordedAt,
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// (ver nota en medications/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
