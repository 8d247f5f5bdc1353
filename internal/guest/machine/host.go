package machine

import (
	"maps"

	"github.com/zjrosen/iceguest/internal/guest/model"
)

func hostCheckIn(s *State, e HostCheckIn) *State {
	out := s.clone()
	out.HostCheckedIn = true
	out.AuthoringBase = e.AuthoringBase
	out.EditModePadding = e.EditModePadding
	out.EditMode = e.EditMode
	if e.HighlightMode.Valid() {
		out.HighlightMode = e.HighlightMode
	}
	out.RTEConfig = maps.Clone(e.RTEConfig)
	if out.RTEConfig == nil {
		out.RTEConfig = map[string]any{}
	}
	out.ActiveSite = e.Site
	out.Username = e.Username
	return out
}

// isOwn reports whether u is the checked-in author. Anonymous users never are.
func (s *State) isOwn(u model.User) bool {
	return s.Username != "" && u.Username == s.Username
}

func contentEvent(s *State, e ContentEvent) *State {
	if e.TargetPath == "" || s.isOwn(e.User) {
		return s
	}
	if cur, ok := s.ExternallyModifiedPaths[e.TargetPath]; ok && cur == e.User {
		return s
	}
	out := s.clone()
	out.ExternallyModifiedPaths = withUser(s.ExternallyModifiedPaths, e.TargetPath, e.User)
	return out
}

func lockContentEvent(s *State, e LockContentEvent) *State {
	if e.TargetPath == "" {
		return s
	}
	if !e.Locked {
		if !s.IsLocked(e.TargetPath) {
			return s
		}
		out := s.clone()
		out.LockedPaths = withoutPath(s.LockedPaths, e.TargetPath)
		return out
	}
	if s.isOwn(e.User) {
		return s
	}
	if cur, ok := s.LockedPaths[e.TargetPath]; ok && cur == e.User {
		return s
	}
	out := s.clone()
	out.LockedPaths = withUser(s.LockedPaths, e.TargetPath, e.User)
	return out
}

// setLockedItems replaces the lock listing.
func setLockedItems(s *State, e SetLockedItems) *State {
	locked := make(map[string]model.User, len(e.Items))
	for _, item := range e.Items {
		u := model.User{Username: item.LockOwner}
		if item.Path == "" || item.LockOwner == "" || s.isOwn(u) {
			continue
		}
		locked[item.Path] = u
	}
	if maps.Equal(locked, s.LockedPaths) {
		return s
	}
	out := s.clone()
	out.LockedPaths = locked
	return out
}

// fetchGuestModelComplete records the locks held by others on the content
// loaded in the preview.
func fetchGuestModelComplete(s *State, e FetchGuestModelComplete) *State {
	var locked map[string]model.User
	for _, item := range e.SandboxItems {
		if !item.LockedFor(s.Username) {
			continue
		}
		u := model.User{Username: item.LockOwner}
		if cur, ok := s.LockedPaths[item.Path]; ok && cur == u {
			continue
		}
		if locked == nil {
			locked = maps.Clone(s.LockedPaths)
			if locked == nil {
				locked = map[string]model.User{}
			}
		}
		locked[item.Path] = u
	}
	if locked == nil {
		return s
	}
	out := s.clone()
	out.LockedPaths = locked
	return out
}

func contentTypesResponse(s *State, e ContentTypesResponse) *State {
	if len(e.ContentTypes) == 0 {
		return s
	}
	out := s.clone()
	out.ContentTypes = maps.Clone(s.ContentTypes)
	if out.ContentTypes == nil {
		out.ContentTypes = map[string]model.ContentType{}
	}
	for id, ct := range e.ContentTypes {
		if ct.ID == "" {
			ct.ID = id
		}
		out.ContentTypes[ct.ID] = ct
	}
	return out
}

// editActionAvailable reports whether content may be dropped into the ICE
// record: the owning item must offer the edit action and neither it nor any
// content above it may be locked by someone else. Items with no cached
// sandbox state are not blocked.
func editActionAvailable(s *State, w World, iceID int) bool {
	for _, path := range w.AncestorPaths(iceID) {
		if s.IsLocked(path) {
			return false
		}
		item, ok := w.SandboxItem(path)
		if !ok {
			continue
		}
		if item.LockedFor(s.Username) {
			return false
		}
	}
	if item, ok := w.SandboxItem(w.PathOf(iceID)); ok && !item.CanEdit() {
		return false
	}
	return true
}
