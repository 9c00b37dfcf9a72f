// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the concrete stores, the lock
// registry, the audit recorder and the guard, then injects them into the
// tools that depend on abstractions. No business logic lives here — only
// wiring.
package server

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/audit"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/config"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/guard"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/locking"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the database connections and must
// be called on shutdown (typically via defer). It is always non-nil and
// safe to call even when construction failed partway.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	cleanup := noop

	// Each process gets its own holder identity. Two sessions started
	// under the same agent name must still contend for locks, so the
	// configured name is only a prefix.
	holder := cfg.AgentName + "-" + uuid.NewString()[:8]

	// --- Persistence ---

	store, err := actionlist.NewSQLiteStore(cfg.DataDir)
	if err != nil {
		return nil, cleanup, fmt.Errorf("opening action list store: %w", err)
	}
	cleanup = stack(cleanup, "action list store", store.Close)

	sink, err := audit.NewSQLiteSink(cfg.DataDir)
	if err != nil {
		return nil, cleanup, fmt.Errorf("opening audit sink: %w", err)
	}
	cleanup = stack(cleanup, "audit sink", sink.Close)

	// --- Locking ---
	//
	// The in-process registry serves a single-server deployment. When a
	// Redis address is configured, the lock table moves there so several
	// server processes can coordinate over the same lists.

	var lockStore locking.Store
	var registry *locking.Registry
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		redisStore, rerr := locking.NewRedisStore(rdb, "cf", cfg.LockTTL)
		if rerr != nil {
			return nil, cleanup, fmt.Errorf("configuring redis lock store: %w", rerr)
		}
		cleanup = stack(cleanup, "redis client", rdb.Close)
		lockStore = redisStore
	} else {
		registry = locking.NewRegistry(locking.Config{TTL: cfg.LockTTL})
		lockStore = registry
	}

	// --- Guard ---

	recorder := audit.NewRecorder(sink)
	g := guard.New(lockStore, recorder, guard.WithExecuteTimeout(cfg.ExecuteTimeout))

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"contextforge",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register mutating tools (guarded) ---

	listCreate := tools.NewListCreateTool(store, g, holder)
	s.AddTool(listCreate.Definition(), listCreate.Handle)

	listUpdate := tools.NewListUpdateTool(store, g, holder)
	s.AddTool(listUpdate.Definition(), listUpdate.Handle)

	listArchive := tools.NewListArchiveTool(store, g, holder)
	s.AddTool(listArchive.Definition(), listArchive.Handle)

	itemAdd := tools.NewItemAddTool(store, g, holder)
	s.AddTool(itemAdd.Definition(), itemAdd.Handle)

	itemComplete := tools.NewItemCompleteTool(store, g, holder)
	s.AddTool(itemComplete.Definition(), itemComplete.Handle)

	itemRemove := tools.NewItemRemoveTool(store, g, holder)
	s.AddTool(itemRemove.Definition(), itemRemove.Handle)

	// --- Register read tools (no guard) ---

	listGet := tools.NewListGetTool(store)
	s.AddTool(listGet.Definition(), listGet.Handle)

	listOverview := tools.NewListOverviewTool(store)
	s.AddTool(listOverview.Definition(), listOverview.Handle)

	auditTrail := tools.NewAuditTrailTool(sink)
	s.AddTool(auditTrail.Definition(), auditTrail.Handle)

	// Lock inspection only makes sense against the in-process registry;
	// with Redis the lock table lives outside this process.
	if registry != nil {
		lockStatus := tools.NewLockStatusTool(registry)
		s.AddTool(lockStatus.Definition(), lockStatus.Handle)
	}

	return s, cleanup, nil
}

// noop is the default cleanup before any resource is opened.
func noop() {}

// stack chains a close function onto the existing cleanup so resources
// shut down in reverse construction order.
func stack(prev func(), name string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			log.Printf("WARNING: closing %s: %v", name, err)
		}
		prev()
	}
}

// serverInstructions returns the system instructions that tell the AI
// how to use the action-list tools effectively.
func serverInstructions() string {
	return strings.TrimSpace(`
You have access to ContextForge, a shared action-list MCP server used by
multiple agent sessions at once.

## Tools

Lists:
- al_list_create — create a new action list (title required)
- al_list_update — change a list's title, description, or status
- al_list_archive — archive a list (shortcut for status=archived)
- al_list_get — read one list with its items
- al_list_overview — browse lists, optionally filtered by status

Items:
- al_item_add — append an item to a list
- al_item_complete — mark an item done (idempotent)
- al_item_remove — delete an item

Introspection:
- al_lock_status — show which lists are currently locked and by whom
- al_audit_trail — show recent operations, or all events for one
  correlation id

## Concurrent sessions

Every mutation briefly locks its list. If another session is modifying
the same list, your call returns a busy error instead of waiting:
"... is currently being modified by another session — try again shortly."

When you see that error, do NOT treat it as a failure. Wait a moment and
retry the same call — the other session's mutation is short-lived. Reads
never block and never see half-applied changes.

## Audit trail

Every mutation is recorded twice: once when it starts ("initiated") and
once when it finishes ("success" or "error"). Both events carry the same
correlation id. Use al_audit_trail to answer "who changed this list and
when", and pass correlation_id to reconstruct a single operation.`)
}
