package ecs

import "github.com/shardfall/server/internal/invariant"

func invariantEnabled() bool { return invariant.Enabled }
