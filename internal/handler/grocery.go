package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/darby/hearth/internal/auth"
	"github.com/darby/hearth/internal/model"
	"github.com/darby/hearth/internal/permission"
	"github.com/darby/hearth/internal/store"
	"github.com/darby/hearth/internal/websocket"
)

type GroceryHandler struct {
	groceryStore  *store.GroceryStore
	settingsStore *store.SettingsStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewGroceryHandler(gs *store.GroceryStore, ss *store.SettingsStore, hub *websocket.Hub, logger *slog.Logger) *GroceryHandler {
	return &GroceryHandler{groceryStore: gs, settingsStore: ss, hub: hub, logger: logger}
}

func (h *GroceryHandler) broadcast(teamID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(teamID, msg)
	}
}

// getTeamList loads a list and verifies it belongs to the caller's team.
func (h *GroceryHandler) getTeamList(w http.ResponseWriter, r *http.Request, listID int64) *model.GroceryList {
	list, err := h.groceryStore.GetListByID(listID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get list")
		return nil
	}
	if list == nil || list.TeamID != auth.TeamID(r.Context()) {
		writeError(w, http.StatusNotFound, "list not found")
		return nil
	}
	return list
}

type groceryListRequest struct {
	Name string `json:"name"`
}

func (h *GroceryHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if !canManage(h.settingsStore, ac, permission.Grocery, nil) {
		writeError(w, http.StatusForbidden, "not allowed to manage grocery lists")
		return
	}

	var req groceryListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	list, err := h.groceryStore.CreateList(ac.TeamID, req.Name)
	if err != nil {
		h.logger.Error("create grocery list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create list")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("grocery_list", "created", list.ID, nil))
	writeJSON(w, http.StatusCreated, list)
}

func (h *GroceryHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.groceryStore.ListsByTeam(auth.TeamID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list grocery lists")
		return
	}
	if lists == nil {
		lists = []model.GroceryList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *GroceryHandler) RenameList(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if h.getTeamList(w, r, id) == nil {
		return
	}

	if !canManage(h.settingsStore, ac, permission.Grocery, nil) {
		writeError(w, http.StatusForbidden, "not allowed to manage grocery lists")
		return
	}

	var req groceryListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	list, err := h.groceryStore.RenameList(id, req.Name)
	if err != nil {
		h.logger.Error("rename grocery list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rename list")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("grocery_list", "updated", list.ID, nil))
	writeJSON(w, http.StatusOK, list)
}

func (h *GroceryHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if h.getTeamList(w, r, id) == nil {
		return
	}

	if !canManage(h.settingsStore, ac, permission.Grocery, nil) {
		writeError(w, http.StatusForbidden, "not allowed to manage grocery lists")
		return
	}

	if err := h.groceryStore.DeleteList(id); err != nil {
		h.logger.Error("delete grocery list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete list")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("grocery_list", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type groceryItemRequest struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes"`
}

func (h *GroceryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	listID, err := strconv.ParseInt(r.PathValue("list_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list_id")
		return
	}
	if h.getTeamList(w, r, listID) == nil {
		return
	}

	if !canManage(h.settingsStore, ac, permission.Grocery, nil) {
		writeError(w, http.StatusForbidden, "not allowed to manage grocery lists")
		return
	}

	var req groceryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	item, err := h.groceryStore.CreateItem(listID, req.Name, req.Quantity, req.Unit, req.Notes, ac.MemberID)
	if err != nil {
		h.logger.Error("create grocery item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("grocery_item", "created", item.ID, map[string]any{"list_id": listID}))
	writeJSON(w, http.StatusCreated, item)
}

func (h *GroceryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(r.PathValue("list_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list_id")
		return
	}
	if h.getTeamList(w, r, listID) == nil {
		return
	}

	items, err := h.groceryStore.ItemsByList(listID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.GroceryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// getTeamItem loads an item and verifies its list belongs to the caller's team.
func (h *GroceryHandler) getTeamItem(w http.ResponseWriter, r *http.Request, id int64) *model.GroceryItem {
	item, err := h.groceryStore.GetItemByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return nil
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return nil
	}
	if h.getTeamList(w, r, item.ListID) == nil {
		return nil
	}
	return item
}

func (h *GroceryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing := h.getTeamItem(w, r, id)
	if existing == nil {
		return
	}

	if !canManage(h.settingsStore, ac, permission.Grocery, &existing.AddedBy) {
		writeError(w, http.StatusForbidden, "not allowed to manage grocery lists")
		return
	}

	var req groceryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = existing.Quantity
	}

	item, err := h.groceryStore.UpdateItem(id, req.Name, req.Quantity, req.Unit, req.Notes)
	if err != nil {
		h.logger.Error("update grocery item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("grocery_item", "updated", item.ID, map[string]any{"list_id": item.ListID}))
	writeJSON(w, http.StatusOK, item)
}

func (h *GroceryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing := h.getTeamItem(w, r, id)
	if existing == nil {
		return
	}

	if !canManage(h.settingsStore, ac, permission.Grocery, &existing.AddedBy) {
		writeError(w, http.StatusForbidden, "not allowed to manage grocery lists")
		return
	}

	if err := h.groceryStore.DeleteItem(id); err != nil {
		h.logger.Error("delete grocery item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("grocery_item", "deleted", id, map[string]any{"list_id": existing.ListID}))
	w.WriteHeader(http.StatusNoContent)
}

// ToggleCompleted flips an item's completed state. Checking items off is
// everyday use, not content management, so it is open to every member.
func (h *GroceryHandler) ToggleCompleted(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if h.getTeamItem(w, r, id) == nil {
		return
	}

	item, err := h.groceryStore.ToggleCompleted(id)
	if err != nil {
		h.logger.Error("toggle grocery item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle item")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("grocery_item", "updated", item.ID, map[string]any{"list_id": item.ListID}))
	writeJSON(w, http.StatusOK, item)
}

func (h *GroceryHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	listID, err := strconv.ParseInt(r.PathValue("list_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list_id")
		return
	}
	if h.getTeamList(w, r, listID) == nil {
		return
	}

	if !canManage(h.settingsStore, ac, permission.Grocery, nil) {
		writeError(w, http.StatusForbidden, "not allowed to manage grocery lists")
		return
	}

	count, err := h.groceryStore.ClearCompleted(listID)
	if err != nil {
		h.logger.Error("clear completed items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear completed items")
		return
	}

	h.broadcast(ac.TeamID, websocket.NewMessage("grocery_list", "updated", listID, nil))
	writeJSON(w, http.StatusOK, map[string]int64{"cleared": count})
}
