package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"orarend/internal/config"
	"orarend/internal/conflict"
	"orarend/internal/ics"
	"orarend/internal/layout"
	appLog "orarend/internal/log"
	"orarend/internal/model"
	"orarend/internal/semester"
)

const dateLayout = "2006-01-02"

// Store holds the imported course catalogue. It is replaced wholesale on
// every import and read concurrently by the HTTP handlers.
type Store struct {
	mu       sync.RWMutex
	courses  []model.Course
	loadedAt time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{courses: []model.Course{}}
}

// Replace swaps in a new catalogue.
func (s *Store) Replace(courses []model.Course, at time.Time) {
	if courses == nil {
		courses = []model.Course{}
	}
	s.mu.Lock()
	s.courses = courses
	s.loadedAt = at
	s.mu.Unlock()
}

// Courses returns the current catalogue. Callers must not modify the
// returned courses.
func (s *Store) Courses() []model.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.courses
}

// LoadedAt reports when the catalogue was last replaced.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Server provides the HTTP read API over a Store.
type Server struct {
	cfg   *config.Config
	store *Store
	clock semester.Clock
	loc   *time.Location
	mux   *http.ServeMux
}

// NewServer constructs a new Server. A nil clock means the system clock in
// the configured timezone.
func NewServer(cfg *config.Config, store *Store, clock semester.Clock) *Server {
	loc := resolveLocationOrLocal(cfg.Timezone)
	if clock == nil {
		clock = semester.SystemClock{Location: loc}
	}
	s := &Server{
		cfg:   cfg,
		store: store,
		clock: clock,
		loc:   loc,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed API, behind basic auth when configured.
func (s *Server) Handler() http.Handler {
	auth := s.cfg.BasicAuth
	if auth == nil || auth.Username == "" || auth.Password == "" {
		return s.mux
	}
	appLog.Info("HTTP basic auth enabled", "user", auth.Username)
	return requireBasicAuth(s.mux, auth.Username, auth.Password)
}

// requireBasicAuth rejects requests without matching credentials. /health
// stays open for liveness probes.
func requireBasicAuth(next http.Handler, user, pass string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			u, p, ok := r.BasicAuth()
			if !ok || !equalConstantTime(u, user) || !equalConstantTime(p, pass) {
				w.Header().Set("WWW-Authenticate", `Basic realm="orarend", charset="UTF-8"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func equalConstantTime(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/courses", s.handleCourses)
	s.mux.HandleFunc("/api/semester", s.handleSemester)
	s.mux.HandleFunc("/api/conflicts", s.handleConflicts)
	s.mux.HandleFunc("/api/layout", s.handleLayout)
	s.mux.HandleFunc("/api/week", s.handleWeek)
	s.mux.HandleFunc("/calendar.ics", s.handleCalendar)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type coursesResponse struct {
	LoadedAt time.Time      `json:"loaded_at"`
	Count    int            `json:"count"`
	Courses  []model.Course `json:"courses"`
}

func (s *Server) handleCourses(w http.ResponseWriter, _ *http.Request) {
	courses := s.store.Courses()
	writeJSON(w, http.StatusOK, coursesResponse{
		LoadedAt: s.store.LoadedAt(),
		Count:    len(courses),
		Courses:  courses,
	})
}

// semesterResponse describes the semester a date belongs to.
type semesterResponse struct {
	Date       string            `json:"date"`
	Current    semester.Semester `json:"current"`
	Label      string            `json:"label"`
	Previous   semester.Semester `json:"previous"`
	Next       semester.Semester `json:"next"`
	FirstDay   string            `json:"first_day"`
	LastDay    string            `json:"last_day"`
	InSemester bool              `json:"in_semester"`
	// Week is the 1-based teaching week, 0 outside the teaching period.
	Week int `json:"week"`
}

// handleSemester answers GET /api/semester?date=YYYY-MM-DD (default today).
func (s *Server) handleSemester(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	cur := semester.Current(day)
	rng := cur.DateRange(s.loc)
	writeJSON(w, http.StatusOK, semesterResponse{
		Date:       day.Format(dateLayout),
		Current:    cur,
		Label:      cur.String(),
		Previous:   cur.Previous(),
		Next:       cur.Next(),
		FirstDay:   rng.First.Format(dateLayout),
		LastDay:    rng.Last.Format(dateLayout),
		InSemester: cur.Contains(day),
		Week:       cur.Week(day),
	})
}

type conflictsResponse struct {
	Count     int                 `json:"count"`
	Conflicts []conflict.Conflict `json:"conflicts"`
}

// handleConflicts answers GET /api/conflicts. With ?class_code= only the
// conflicts of that course against the rest are returned.
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	courses := s.store.Courses()

	var found []conflict.Conflict
	if code := strings.TrimSpace(r.URL.Query().Get("class_code")); code != "" {
		c, ok := findByClassCode(courses, code)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown class code")
			return
		}
		found = conflict.ForCourse(c, courses)
	} else {
		found = conflict.Find(courses)
	}
	writeJSON(w, http.StatusOK, conflictsResponse{Count: len(found), Conflicts: found})
}

// layoutResponse is a day layout plus the titles of the courses it shows.
type layoutResponse struct {
	layout.Result
	Titles map[string]string `json:"titles"`
}

// handleLayout answers GET /api/layout?date=YYYY-MM-DD (default today).
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	courses := s.store.Courses()
	res := layout.Layout(day, allSlots(courses), s.cfg.Window, s.clock.Now())
	writeJSON(w, http.StatusOK, layoutResponse{Result: res, Titles: titles(courses)})
}

type weekResponse struct {
	Semester string            `json:"semester"`
	Week     int               `json:"week"`
	Days     []layout.Result   `json:"days"`
	Titles   map[string]string `json:"titles"`
}

// handleWeek answers GET /api/week?date=YYYY-MM-DD with the Monday..Sunday
// layouts of the week containing date.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	day, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	courses := s.store.Courses()
	cur := semester.Current(day)
	writeJSON(w, http.StatusOK, weekResponse{
		Semester: cur.String(),
		Week:     cur.Week(day),
		Days:     layout.Week(day, allSlots(courses), s.cfg.Window, s.clock.Now()),
		Titles:   titles(courses),
	})
}

// handleCalendar answers GET /calendar.ics?semester=2025/26/1 (default the
// current semester) with one VEVENT per class meeting.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	sem := semester.CurrentFrom(s.clock)
	if v := r.URL.Query().Get("semester"); v != "" {
		parsed, err := semester.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sem = parsed
	}

	holidays, err := s.cfg.HolidayDates(s.loc)
	if err != nil {
		appLog.Error("calendar: invalid holidays in config", err)
		writeError(w, http.StatusInternalServerError, "invalid holiday configuration")
		return
	}

	cfg := ics.ExpandConfig{DisplayLocation: s.loc, Holidays: holidays}.ForSemester(sem)
	body, err := ics.Export(s.store.Courses(), cfg, sem.String(), s.clock.Now())
	if err != nil {
		appLog.Error("calendar: export failed", err, "semester", sem.String())
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// dateParam reads ?date= in the server timezone, defaulting to today. On a
// malformed value it writes a 400 and returns false.
func (s *Server) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("date")
	if v == "" {
		now := s.clock.Now().In(s.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc), true
	}
	d, err := time.ParseInLocation(dateLayout, v, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func allSlots(courses []model.Course) []model.Slot {
	out := make([]model.Slot, 0)
	for _, c := range courses {
		out = append(out, c.Slots...)
	}
	return out
}

func titles(courses []model.Course) map[string]string {
	out := make(map[string]string, len(courses))
	for _, c := range courses {
		out[c.ID] = c.Title()
	}
	return out
}

func findByClassCode(courses []model.Course, code string) (model.Course, bool) {
	for _, c := range courses {
		if c.ClassCode == code {
			return c, true
		}
	}
	return model.Course{}, false
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
