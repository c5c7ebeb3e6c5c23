// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"quicktask/internal/service"
)

// DefaultListID is the ID used for the default list.
const DefaultListID = "default-id"

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu      sync.RWMutex
	lists   []service.TaskList
	created []service.CreateTaskRequest

	authorized int

	// Error injection for testing
	AuthorizeErr  error
	FetchListsErr error
	CreateTaskErr error
}

// NewFakeService creates a new FakeService with a default list.
func NewFakeService() *FakeService {
	return &FakeService{
		lists: []service.TaskList{
			{ID: DefaultListID, DisplayName: "Tasks", WellknownListName: service.WellknownDefaultList, IsOwner: true},
		},
	}
}

// AddList adds a list to the fake service.
func (f *FakeService) AddList(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, service.TaskList{ID: id, DisplayName: title, WellknownListName: "none", IsOwner: true})
}

// SetLists replaces all lists, in provider order.
func (f *FakeService) SetLists(lists ...service.TaskList) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append([]service.TaskList(nil), lists...)
}

// Created returns the requests accepted by CreateTask.
func (f *FakeService) Created() []service.CreateTaskRequest {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.CreateTaskRequest(nil), f.created...)
}

// Authorized returns how often Authorize was called.
func (f *FakeService) Authorized() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.authorized
}

// Name implements service.Service.
func (f *FakeService) Name() string { return "fake" }

// Authorize implements service.Service.
func (f *FakeService) Authorize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorized++
	return f.AuthorizeErr
}

// FetchLists implements service.Service.
func (f *FakeService) FetchLists(ctx context.Context) ([]service.TaskList, error) {
	if f.FetchListsErr != nil {
		return nil, f.FetchListsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.TaskList, len(f.lists))
	copy(result, f.lists)
	return result, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, req service.CreateTaskRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if f.CreateTaskErr != nil {
		return f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return nil
}
