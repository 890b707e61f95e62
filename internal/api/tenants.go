package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/resolute-ai/rampart/internal/store"
)

func (d *Dependencies) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Name == "" || len(req.Name) > 255 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "name must be 1-255 characters"})
		return
	}

	tenant, plainKey, err := d.Store.CreateTenant(r.Context(), req.Name)
	if err != nil {
		d.Logger.Error("failed to create tenant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to create tenant"})
		return
	}

	writeJSON(w, http.StatusCreated, CreateTenantResp{
		ID:           tenant.ID,
		Name:         tenant.Name,
		APIKey:       plainKey,
		APIKeyPrefix: tenant.APIKeyPrefix,
		CreatedAt:    tenant.CreatedAt,
	})
}

func (d *Dependencies) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := d.Store.ListTenants(r.Context())
	if err != nil {
		d.Logger.Error("failed to list tenants", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list tenants"})
		return
	}

	resp := make([]TenantResp, 0, len(tenants))
	for _, t := range tenants {
		resp = append(resp, tenantToResp(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")
	tenant, err := d.Store.GetTenant(r.Context(), id)
	if errors.Is(err, store.ErrTenantNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tenant not found."})
		return
	}
	if err != nil {
		d.Logger.Error("failed to get tenant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get tenant"})
		return
	}
	writeJSON(w, http.StatusOK, tenantToResp(&tenant.Tenant))
}

func (d *Dependencies) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")

	var req UpdateTenantReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if req.Name == nil || len(*req.Name) == 0 || len(*req.Name) > 255 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "name must be 1-255 characters"})
		return
	}

	tenant, err := d.Store.UpdateTenant(r.Context(), id, *req.Name)
	if errors.Is(err, store.ErrTenantNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tenant not found."})
		return
	}
	if err != nil {
		d.Logger.Error("failed to update tenant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to update tenant"})
		return
	}
	writeJSON(w, http.StatusOK, tenantToResp(tenant))
}

func (d *Dependencies) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")
	err := d.Store.DeleteTenant(r.Context(), id)
	if errors.Is(err, store.ErrTenantNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tenant not found."})
		return
	}
	if err != nil {
		d.Logger.Error("failed to delete tenant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to delete tenant"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dependencies) handleRotateKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")
	plainKey, prefix, err := d.Store.RotateKey(r.Context(), id)
	if errors.Is(err, store.ErrTenantNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tenant not found."})
		return
	}
	if err != nil {
		d.Logger.Error("failed to rotate key", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to rotate API key"})
		return
	}
	writeJSON(w, http.StatusOK, RotateKeyResp{
		APIKey:       plainKey,
		APIKeyPrefix: prefix,
	})
}

func (d *Dependencies) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")
	tenant, err := d.Store.GetTenant(r.Context(), id)
	if errors.Is(err, store.ErrTenantNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tenant not found."})
		return
	}
	if err != nil {
		d.Logger.Error("failed to get policy", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get policy"})
		return
	}
	writeJSON(w, http.StatusOK, PolicyResp{
		TenantID:          tenant.ID,
		EnforcementConfig: rawOrEmptyObject(tenant.EnforcementConfig),
		UpdatedAt:         tenant.UpdatedAt,
	})
}

func (d *Dependencies) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("tenant_id")

	var req UpdatePolicyReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}
	if len(req.EnforcementConfig) == 0 || !json.Valid(req.EnforcementConfig) {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "enforcement_config must be a JSON object"})
		return
	}

	tenant, err := d.Store.UpdatePolicy(r.Context(), id, req.EnforcementConfig)
	if errors.Is(err, store.ErrTenantNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tenant not found."})
		return
	}
	if err != nil {
		d.Logger.Error("failed to update policy", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to update policy"})
		return
	}
	writeJSON(w, http.StatusOK, PolicyResp{
		TenantID:          tenant.ID,
		EnforcementConfig: rawOrEmptyObject(tenant.EnforcementConfig),
		UpdatedAt:         tenant.UpdatedAt,
	})
}

func tenantToResp(t *store.Tenant) TenantResp {
	return TenantResp{
		ID:           t.ID,
		Name:         t.Name,
		APIKeyPrefix: t.APIKeyPrefix,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func rawOrEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}
