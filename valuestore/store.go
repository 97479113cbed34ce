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

// Package valuestore provides the key-value store in which checks keep their state between two invocations. Values
// are opaque to the store and get round-tripped through JSON, so any structure which can be marshalled by the builtin
// 'json.Marshal' function can be stored.
package valuestore

import (
	"encoding/json"
	"github.com/pkg/errors"
	"sort"
	"strings"
)

// Store represents a persistent key-value mapping which survives across check cycles
type Store interface {
	Get(key string, v interface{}) (bool, error)
	Set(key string, v interface{}) error
	Delete(key string) error
}

// Memory is an in-memory Store. Values are kept in their marshalled form, so a caller can never alias persisted state.
type Memory struct {
	values map[string]json.RawMessage
}

type scopedStore struct {
	store  Store
	prefix string
}

// NewMemory instantiates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]json.RawMessage),
	}
}

// Get unmarshals the value stored under the given key into v. The boolean result is false if no such key exists, in
// which case v stays untouched.
func (m *Memory) Get(key string, v interface{}) (bool, error) {
	raw, ok := m.values[key]
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return true, errors.Wrapf(err, "could not unmarshal value of key [%s]", key)
	}

	return true, nil
}

// Set marshals v and stores it under the given key, replacing any previous value
func (m *Memory) Set(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "could not marshal value of key [%s]", key)
	}

	m.values[key] = raw
	return nil
}

// Delete removes the given key. Deleting a missing key is not an error.
func (m *Memory) Delete(key string) error {
	delete(m.values, key)
	return nil
}

// Keys returns all stored keys in lexical order
func (m *Memory) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys
}

// Len returns the amount of stored keys
func (m *Memory) Len() int {
	return len(m.values)
}

// MarshalJSON serializes the whole store as a single JSON object
func (m *Memory) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.values)
}

// UnmarshalJSON replaces the contents of the store with the given JSON object
func (m *Memory) UnmarshalJSON(data []byte) error {
	values := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}

	m.values = values
	return nil
}

// Scoped returns a view on the given store, which transparently prefixes all keys with "<prefix>."
func Scoped(store Store, prefix string) Store {
	return &scopedStore{
		store:  store,
		prefix: strings.TrimSuffix(prefix, ".") + ".",
	}
}

func (s *scopedStore) Get(key string, v interface{}) (bool, error) {
	return s.store.Get(s.prefix+key, v)
}

func (s *scopedStore) Set(key string, v interface{}) error {
	return s.store.Set(s.prefix+key, v)
}

func (s *scopedStore) Delete(key string) error {
	return s.store.Delete(s.prefix + key)
}
