/*
 * nagodisk - Reliable and lightweight Nagios plugins written in Go
 * Copyright (C) 2018-2019  Pascal Mathis
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package nagocheck

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"github.com/snapserv/nagodisk/valuestore"
	"github.com/snapserv/nagopher"
	"time"
)

// Resource provides a base type for nagocheck resources, which embeds nagopher.Resource
type Resource interface {
	nagopher.Resource
	Plugin() Plugin
	Store() valuestore.Store
	Now() time.Time
	Logger() logrus.FieldLogger
}

// ResourceOpt is a type alias for functional options used by NewResource()
type ResourceOpt func(*baseResource)

type baseResource struct {
	nagopher.Resource `json:"-"`
	plugin            Plugin

	persistenceKey string
	store          valuestore.Store
	sharedStore    *valuestore.SharedMemory
	clock          func() time.Time
}

// NewResource instantiates baseResource with the given functional options
func NewResource(plugin Plugin, options ...ResourceOpt) Resource {
	resource := &baseResource{
		Resource: nagopher.NewResource(),
		plugin:   plugin,
		clock:    time.Now,
	}

	for _, option := range options {
		option(resource)
	}

	return resource
}

// ResourcePersistence is a functional option for NewResource(), which enables resource persistence with the given key.
// The store gets locked and loaded during Setup and written back during Teardown. Keys are case sensitive, as are the
// mount points and device names they are usually derived from.
func ResourcePersistence(uniqueKey string) ResourceOpt {
	return func(r *baseResource) {
		r.persistenceKey = ".nagodisk-" + r.Plugin().Name() + "-" + uniqueKey
	}
}

// ResourceStore is a functional option for NewResource(), which uses the given store instead of shared memory
func ResourceStore(store valuestore.Store) ResourceOpt {
	return func(r *baseResource) {
		r.store = store
	}
}

// ResourceClock is a functional option for NewResource(), which replaces the wall clock used for timestamps
func ResourceClock(clock func() time.Time) ResourceOpt {
	return func(r *baseResource) {
		r.clock = clock
	}
}

func (r *baseResource) Setup(warnings nagopher.WarningCollection) error {
	if r.store != nil || r.persistenceKey == "" {
		return nil
	}

	store, err := valuestore.OpenSharedMemory(r.persistenceKey)
	if err != nil {
		return fmt.Errorf("unable to load persistent data: %s", err.Error())
	}

	r.Logger().WithField("keys", store.Len()).Debug("loaded persistent data")
	r.sharedStore = store
	r.store = store
	return nil
}

func (r *baseResource) Teardown(warnings nagopher.WarningCollection) error {
	if r.sharedStore == nil {
		return nil
	}

	if err := r.sharedStore.Close(); err != nil {
		return fmt.Errorf("unable to store persistent data: %s", err.Error())
	}

	r.sharedStore = nil
	return nil
}

// Store returns the value store of the resource. Without persistence, state is kept in memory for a single run only.
func (r *baseResource) Store() valuestore.Store {
	if r.store == nil {
		r.store = valuestore.NewMemory()
	}

	return r.store
}

func (r *baseResource) Now() time.Time {
	return r.clock()
}

func (r *baseResource) Logger() logrus.FieldLogger {
	return Logger().WithField("plugin", r.plugin.Name())
}

func (r *baseResource) Plugin() Plugin {
	return r.plugin
}
