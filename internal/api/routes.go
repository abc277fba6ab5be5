package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pedro199288/reelforge-sub004/internal/cutmap"
	"github.com/pedro199288/reelforge-sub004/internal/project"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	// Playback skips bearer auth: browser media elements cannot attach
	// Authorization headers. Loopback-only access stands in for it.
	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Get("/playback/file", playbackHandler(cfg))
		r.Head("/playback/file", playbackHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Post("/projects", createProjectHandler(cfg))
		r.Get("/projects", listProjectsHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))

		r.Post("/projects/{id}/tracks", addTrackHandler(cfg))
		r.Get("/projects/{id}/tracks", listTracksHandler(cfg))

		r.Get("/tracks/{id}/items", listItemsHandler(cfg))
		r.Post("/tracks/{id}/items", placeItemHandler(cfg))
		r.Put("/tracks/{id}/items/{itemID}", moveItemHandler(cfg))
		r.Delete("/tracks/{id}/items/{itemID}", deleteItemHandler(cfg))

		r.Put("/projects/{id}/cutmap", putCutMapHandler(cfg))
		r.Get("/projects/{id}/cutmap", getCutMapHandler(cfg))
		r.Get("/projects/{id}/position", positionHandler(cfg))
		r.Post("/projects/{id}/segments/map", mapSegmentsHandler(cfg))
		r.Post("/projects/{id}/captions/map", mapCaptionsHandler(cfg))

		r.Post("/export/edl", exportEDLHandler(cfg))

		r.Post("/probe", probeHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		version := cfg.Version
		if version == "" {
			version = "0.1.0"
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projectsCount, _ := cfg.ProjectService.CountProjects(ctx)
		itemsCount, _ := cfg.ProjectService.CountItems(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == project.JobStatusRunning {
				state = "working"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == project.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:         state,
			LastError:     lastError,
			ProjectsCount: projectsCount,
			ItemsCount:    itemsCount,
			JobsRunning:   jobsRunning,
			ActiveJob:     activeJob,
		}

		if cfg.Doctor != nil {
			caps, err := cfg.Doctor.Get(ctx)
			if err == nil && caps != nil {
				resp.Media = &MediaStatusResponse{
					HasProbe:       caps.HasProbe,
					HasThumbnails:  caps.HasThumbnails,
					FFmpegVersion:  caps.FFmpeg.Version,
					FFprobeVersion: caps.FFprobe.Version,
					LastProbeAt:    caps.ProbedAt.Format(time.RFC3339),
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Name == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		p, err := cfg.ProjectService.CreateProject(r.Context(), req.Name, req.SourcePath)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.ProjectService.GetProjects(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cfg.ProjectService.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if p == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.ProjectService.RemoveProject(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTrackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		track, err := cfg.ProjectService.AddTrack(r.Context(), chi.URLParam(r, "id"), req.Name, req.Kind)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, TrackToResponse(track))
	}
}

func listTracksHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracks, err := cfg.ProjectService.GetTracks(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := TracksResponse{Tracks: make([]TrackResponse, len(tracks))}
		for i, t := range tracks {
			resp.Tracks[i] = TrackToResponse(t)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listItemsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := cfg.ProjectService.TrackItems(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, ItemsResponse{Items: items})
	}
}

func placeItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlaceItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Kind == "" {
			WriteError(w, http.StatusBadRequest, "kind is required", "BAD_REQUEST")
			return
		}
		if req.From < 0 {
			WriteError(w, http.StatusBadRequest, "from must not be negative", "BAD_REQUEST")
			return
		}

		items, err := cfg.ProjectService.PlaceItem(r.Context(), chi.URLParam(r, "id"), req.ToItem())
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, ItemsResponse{Items: items})
	}
}

func moveItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		items, err := cfg.ProjectService.MoveItem(r.Context(),
			chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), req.From)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, ItemsResponse{Items: items})
	}
}

func deleteItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.ProjectService.RemoveItem(r.Context(),
			chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func putCutMapHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CutMapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.ProjectService.SetCutEntries(r.Context(), chi.URLParam(r, "id"), req.Entries); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, CutMapResponse{Entries: req.Entries})
	}
}

func getCutMapHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := cfg.ProjectService.CutEntries(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if entries == nil {
			entries = []cutmap.Entry{}
		}
		WriteJSON(w, http.StatusOK, CutMapResponse{Entries: entries})
	}
}

// positionHandler translates a playhead position between the two spaces.
// `space` names the space the given ms lives in; the response carries the
// position in the opposite space, or null when the moment was cut away.
func positionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms, err := strconv.Atoi(r.URL.Query().Get("ms"))
		if err != nil || ms < 0 {
			WriteError(w, http.StatusBadRequest, "ms must be a non-negative integer", "BAD_REQUEST")
			return
		}

		from := cutmap.Space(r.URL.Query().Get("space"))
		if from == "" {
			from = cutmap.SpaceOriginal
		}
		if from != cutmap.SpaceOriginal && from != cutmap.SpaceCut {
			WriteError(w, http.StatusBadRequest, "space must be original or cut", "BAD_REQUEST")
			return
		}

		mapper, err := cfg.ProjectService.Mapper(r.Context(), chi.URLParam(r, "id"), from)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}

		var mapped int
		var ok bool
		var target cutmap.Space
		if from == cutmap.SpaceOriginal {
			target = cutmap.SpaceCut
			mapped, ok = mapper.ToCut(ms)
		} else {
			target = cutmap.SpaceOriginal
			mapped, ok = mapper.ToOriginal(ms)
		}

		resp := PositionResponse{Space: string(target), Ms: ms}
		if ok {
			resp.Mapped = &mapped
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func mapSegmentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MapSegmentsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		mapper, err := cfg.ProjectService.Mapper(r.Context(), chi.URLParam(r, "id"), cutmap.SpaceOriginal)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}

		mapped, unmapped := mapper.MapSegmentsToCut(req.Segments)
		if unmapped == nil {
			unmapped = []cutmap.Segment{}
		}
		WriteJSON(w, http.StatusOK, MapSegmentsResponse{Segments: mapped, Unmapped: unmapped})
	}
}

func mapCaptionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MapCaptionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		mapper, err := cfg.ProjectService.Mapper(r.Context(), chi.URLParam(r, "id"), cutmap.SpaceOriginal)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}

		mapped := mapper.MapCaptionsToCut(req.Captions)
		WriteJSON(w, http.StatusOK, MapCaptionsResponse{
			Captions: mapped,
			Dropped:  len(req.Captions) - len(mapped),
		})
	}
}

func probeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProbeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.ProjectID == "" {
			projects, err := cfg.ProjectService.GetProjects(r.Context())
			if err != nil {
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
				return
			}
			if len(projects) == 0 {
				WriteError(w, http.StatusBadRequest, "no projects configured", "BAD_REQUEST")
				return
			}
			req.ProjectID = projects[0].ID
		}

		job, err := cfg.ProjectService.CreateProbeJob(r.Context(), req.ProjectID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, ProbeResponse{JobID: job.ID})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Repository.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := r.URL.Query().Get("project_id")
		if projectID == "" {
			WriteError(w, http.StatusBadRequest, "project_id is required", "BAD_REQUEST")
			return
		}

		p, err := cfg.ProjectService.GetProject(r.Context(), projectID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if p == nil {
			WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}
		if p.SourcePath == "" {
			WriteError(w, http.StatusNotFound, "project has no source media", "NO_SOURCE")
			return
		}

		if err := cfg.PlaybackServer.ServeMedia(w, r, p.SourcePath); err != nil {
			cfg.Logger.Error("playback error", "error", err, "project_id", projectID)
		}
	}
}
