package config

import (
	_ "github.com/any-hub/diskstore/internal/eviction/lru"
)
