package handlers

import (
	"net/http"

	"github.com/Dias221467/friendconnect/internal/services"
	log "github.com/sirupsen/logrus"
)

// GroupHandler manages group creation, listings and membership.
type GroupHandler struct {
	Service *services.GroupService
}

func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{Service: service}
}

// CreateGroupHandler creates a group owned by the caller.
func (h *GroupHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	}
	if !decode(w, r, &in) {
		return
	}

	group, err := h.Service.CreateGroup(r.Context(), caller, in.Name, in.Bio)
	if err != nil {
		writeError(w, "create group", err)
		return
	}
	log.WithField("groupID", group.ID.Hex()).Info("Group created")
	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	groups, err := h.Service.ListGroups(r.Context())
	if err != nil {
		writeError(w, "list groups", err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// MyGroupsHandler lists the groups the caller belongs to.
func (h *GroupHandler) MyGroupsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	groups, err := h.Service.UserGroups(r.Context(), caller)
	if err != nil {
		writeError(w, "user groups", err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) JoinGroupHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Join(r.Context(), caller, groupID); err != nil {
		writeError(w, "join group", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *GroupHandler) LeaveGroupHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Leave(r.Context(), caller, groupID); err != nil {
		writeError(w, "leave group", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
