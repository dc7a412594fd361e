package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"finance-tracker/internal/models"
	"finance-tracker/internal/records"
	"finance-tracker/internal/storage"
)

// recordHandlers serves one record kind. Income and expense share every
// handler; only the kind differs.
type recordHandlers struct {
	*Handlers
	kind models.Kind
}

// RegisterRecordRoutes mounts the record API for kind under /api/<kind>.
// Every route requires authentication.
func (h *Handlers) RegisterRecordRoutes(mux *http.ServeMux, kind models.Kind) {
	rh := &recordHandlers{Handlers: h, kind: kind}
	base := "/api/" + string(kind)

	mux.Handle("GET "+base, h.AuthMiddleware(http.HandlerFunc(rh.List)))
	mux.Handle("POST "+base, h.AuthMiddleware(http.HandlerFunc(rh.Create)))
	mux.Handle("GET "+base+"/stats", h.AuthMiddleware(http.HandlerFunc(rh.Stats)))
	mux.Handle("GET "+base+"/export", h.AuthMiddleware(http.HandlerFunc(rh.Export)))
	mux.Handle("GET "+base+"/{id}", h.AuthMiddleware(http.HandlerFunc(rh.Get)))
	mux.Handle("PUT "+base+"/{id}", h.AuthMiddleware(http.HandlerFunc(rh.Update)))
	mux.Handle("DELETE "+base+"/{id}", h.AuthMiddleware(http.HandlerFunc(rh.Delete)))
}

func (rh *recordHandlers) notFound(w http.ResponseWriter) {
	writeMessage(w, http.StatusNotFound, rh.kind.Title()+" not found")
}

// badRequest answers 400 for validation errors and reports whether it did.
func badRequest(w http.ResponseWriter, err error) bool {
	var verr *records.ValidationError
	if errors.As(err, &verr) {
		writeMessage(w, http.StatusBadRequest, verr.Message)
		return true
	}
	return false
}

// List returns the caller's records matching the query filters, newest first.
func (rh *recordHandlers) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	q, err := records.ParseFilter(user.ID, rh.kind, r.URL.Query())
	if err != nil {
		badRequest(w, err)
		return
	}

	list, err := rh.store.FindRecords(r.Context(), q)
	if err != nil {
		rh.serverError(w, r, "list "+string(rh.kind), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Stats aggregates every record in the requested date range.
func (rh *recordHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	params := r.URL.Query()
	params.Del("category")
	params.Del("limit")

	q, err := records.ParseFilter(user.ID, rh.kind, params)
	if err != nil {
		badRequest(w, err)
		return
	}

	list, err := rh.store.FindRecords(r.Context(), q.Unlimited())
	if err != nil {
		rh.serverError(w, r, string(rh.kind)+" stats", err)
		return
	}
	writeJSON(w, http.StatusOK, records.Aggregate(rh.kind, list))
}

// Export streams all matching records as an xlsx attachment.
func (rh *recordHandlers) Export(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	params := r.URL.Query()
	params.Del("limit")

	q, err := records.ParseFilter(user.ID, rh.kind, params)
	if err != nil {
		badRequest(w, err)
		return
	}

	list, err := rh.store.FindRecords(r.Context(), q.Unlimited())
	if err != nil {
		rh.serverError(w, r, "export "+string(rh.kind), err)
		return
	}

	var buf bytes.Buffer
	if err := records.Export(&buf, rh.kind, list); err != nil {
		rh.serverError(w, r, "export "+string(rh.kind), err)
		return
	}

	w.Header().Set("Content-Type", records.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+records.ExportFilename(rh.kind, rh.now()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Get returns one of the caller's records.
func (rh *recordHandlers) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	rec, err := rh.store.GetRecord(r.Context(), user.ID, rh.kind, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		rh.notFound(w)
		return
	}
	if err != nil {
		rh.serverError(w, r, "get "+string(rh.kind), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Create validates the body and stores a new record owned by the caller.
func (rh *recordHandlers) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var in records.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	rec, err := records.NewRecord(user.ID, rh.kind, in)
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := rh.store.CreateRecord(r.Context(), rec); err != nil {
		rh.serverError(w, r, "add "+string(rh.kind), err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Update changes only the fields present in the body.
func (rh *recordHandlers) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var in records.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	rec, err := rh.store.GetRecord(r.Context(), user.ID, rh.kind, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		rh.notFound(w)
		return
	}
	if err != nil {
		rh.serverError(w, r, "update "+string(rh.kind), err)
		return
	}

	if err := records.ApplyUpdate(rh.kind, rec, in); err != nil {
		badRequest(w, err)
		return
	}

	err = rh.store.UpdateRecord(r.Context(), user.ID, rec)
	if errors.Is(err, storage.ErrNotFound) {
		rh.notFound(w)
		return
	}
	if err != nil {
		rh.serverError(w, r, "update "+string(rh.kind), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete permanently removes one of the caller's records.
func (rh *recordHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	err := rh.store.DeleteRecord(r.Context(), user.ID, rh.kind, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		rh.notFound(w)
		return
	}
	if err != nil {
		rh.serverError(w, r, "delete "+string(rh.kind), err)
		return
	}
	writeMessage(w, http.StatusOK, rh.kind.Title()+" deleted successfully")
}
