// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ports

// Surface is a render target allocated by the host.
type Surface interface {
	ID() int64
	Release() error
}

// SurfaceProvider allocates render targets.
type SurfaceProvider interface {
	CreateSurface() (Surface, error)
}
