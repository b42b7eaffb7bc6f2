// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model holds the playback domain types: events and their wire form,
// source descriptors, engine states and domain errors.
package model
