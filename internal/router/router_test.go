package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medipet/internal/router"
)

func TestHTTP_EndToEnd_MedicationScheduling(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	userID := "user-1"
	otherID := "user-2"

	// 1) Sin identidad no hay acceso
	{
		st, _ := doReq(t, ts.URL, "GET", "/medications", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without identity, got %d", st)
		}
	}

	// 2) Preferencias: defaults al primer GET
	{
		st, body := doReq(t, ts.URL, "GET", "/preferences", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get preferences, got %d body=%s", st, string(body))
		}
		var resp struct {
			WakeTime  string `json:"wake_time"`
			SleepTime string `json:"sleep_time"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.WakeTime != "07:00" || resp.SleepTime != "22:00" {
			t.Fatalf("expected default routine 07:00/22:00, got %s/%s", resp.WakeTime, resp.SleepTime)
		}
	}

	// 3) Usuario ajusta su rutina
	{
		st, body := doReq(t, ts.URL, "PATCH", "/preferences", userID, map[string]any{
			"wake_time":  "08:00",
			"sleep_time": "20:00",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 patch preferences, got %d body=%s", st, string(body))
		}
	}

	// 4) Alta de medicamento
	medID := createMedication(t, ts.URL, userID, map[string]any{
		"drug_name":  "Amoxicillin",
		"strength":   "500mg",
		"dosage":     "1 tablet",
		"frequency":  "Twice daily",
		"start_date": "2024-01-01",
	})

	// 5) Otro usuario no lo ve
	{
		st, _ := doReq(t, ts.URL, "GET", "/medications/"+medID, otherID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for foreign medication, got %d", st)
		}
	}

	// 6) Horario sugerido: 2 tomas repartidas en la ventana 08:00-20:00
	{
		st, body := doReq(t, ts.URL, "GET", "/medications/"+medID+"/suggested-schedule", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 suggested schedule, got %d body=%s", st, string(body))
		}
		var resp struct {
			TimesPerDay int      `json:"times_per_day"`
			Times       []string `json:"times"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.TimesPerDay != 2 {
			t.Fatalf("expected 2 times per day, got %d", resp.TimesPerDay)
		}
		if len(resp.Times) != 2 || resp.Times[0] != "08:00" || resp.Times[1] != "14:00" {
			t.Fatalf("expected [08:00 14:00], got %v", resp.Times)
		}
	}

	// 7) Usuario fija sus recordatorios
	{
		st, body := doReq(t, ts.URL, "PUT", "/medications/"+medID+"/reminders", userID, map[string]any{
			"times": []string{"20:00", "08:00"},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 set reminders, got %d body=%s", st, string(body))
		}
		var resp struct {
			Reminders []string `json:"reminder_times"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Reminders) != 2 || resp.Reminders[0] != "08:00" || resp.Reminders[1] != "20:00" {
			t.Fatalf("expected sorted reminders [08:00 20:00], got %v", resp.Reminders)
		}
	}

	// 8) Agenda del día: twice daily aparece en ambas tomas
	{
		st, body := doReq(t, ts.URL, "GET", "/schedule/day?date=2026-03-05", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 day schedule, got %d body=%s", st, string(body))
		}
		var resp struct {
			Entries []struct {
				MedicationID string `json:"medication_id"`
				Display      string `json:"display"`
			} `json:"entries"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Entries) != 2 {
			t.Fatalf("expected 2 agenda entries, got %d body=%s", len(resp.Entries), string(body))
		}
		if resp.Entries[0].Display != "8:00 AM" || resp.Entries[1].Display != "8:00 PM" {
			t.Fatalf("expected 8:00 AM then 8:00 PM, got %q %q", resp.Entries[0].Display, resp.Entries[1].Display)
		}
	}

	// 9) Próxima toma calculada
	{
		st, body := doReq(t, ts.URL, "GET", "/medications/"+medID+"/next-dose", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 next dose, got %d body=%s", st, string(body))
		}
		var resp struct {
			NextDoseAt *time.Time `json:"next_dose_at"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.NextDoseAt == nil {
			t.Fatalf("expected a next dose, got null body=%s", string(body))
		}
		if !resp.NextDoseAt.After(time.Now()) {
			t.Fatalf("next dose should be in the future, got %v", resp.NextDoseAt)
		}
	}

	// 10) Confirmación dentro de ventana => on_time; duplicado => 409
	scheduledAt := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	{
		taken := scheduledAt.Add(10 * time.Minute)
		st, body := doReq(t, ts.URL, "POST", "/medications/"+medID+"/doses/confirm", userID, map[string]any{
			"scheduled_at": scheduledAt.Format(time.RFC3339),
			"taken_at":     taken.Format(time.RFC3339),
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 confirm dose, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "on_time" {
			t.Fatalf("expected on_time, got %q", resp.Status)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/medications/"+medID+"/doses/confirm", userID, map[string]any{
			"scheduled_at": scheduledAt.Format(time.RFC3339),
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate confirm, got %d", st)
		}
	}

	// 11) Skip de otra toma
	{
		st, body := doReq(t, ts.URL, "POST", "/medications/"+medID+"/doses/skip", userID, map[string]any{
			"scheduled_at": time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC).Format(time.RFC3339),
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 skip dose, got %d body=%s", st, string(body))
		}
	}

	// 12) Historial del medicamento
	{
		st, body := doReq(t, ts.URL, "GET", "/medications/"+medID+"/doses", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list doses, got %d body=%s", st, string(body))
		}
		var resp []struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp) != 2 {
			t.Fatalf("expected 2 dose records, got %d", len(resp))
		}
	}

	// 13) Stats de adherencia
	{
		st, body := doReq(t, ts.URL, "GET", "/stats", userID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 stats, got %d body=%s", st, string(body))
		}
		var resp struct {
			TotalMedications    int `json:"total_medications"`
			AdherencePercentage int `json:"adherence_percentage"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.TotalMedications != 1 {
			t.Fatalf("expected 1 medication in stats, got %d", resp.TotalMedications)
		}
		if resp.AdherencePercentage != 50 {
			t.Fatalf("expected 50%% adherence (1 on_time, 1 skipped), got %d", resp.AdherencePercentage)
		}
	}

	// 14) Baja del medicamento
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/medications/"+medID, userID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete medication, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/medications/"+medID, userID, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", st)
		}
	}
}

func createMedication(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/medications", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create medication, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create medication: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
