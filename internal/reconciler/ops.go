package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"gitlab.bluewillows.net/root/wgdisco/internal/metrics"
	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
)

// set makes value the only content for (name, rtype): update if any
// content exists, create otherwise. Idempotent.
func (r *Reconciler) set(ctx context.Context, name string, rtype provider.RecordType, value string) error {
	existing, err := r.provider.List(ctx, name, rtype)
	if err != nil {
		return fmt.Errorf("listing %s %s: %w", rtype, name, err)
	}

	if len(existing) > 0 {
		if err := r.provider.Update(ctx, name, rtype, []string{value}, r.ttl); err != nil {
			return err
		}
		metrics.RecordMutation(r.provider.Name(), "update", string(rtype))
		r.logger.Debug("record updated",
			slog.String("name", name),
			slog.String("type", string(rtype)),
			slog.String("content", value),
		)
		return nil
	}

	if err := r.provider.Create(ctx, name, rtype, value, r.ttl); err != nil {
		return err
	}
	metrics.RecordMutation(r.provider.Name(), "create", string(rtype))
	r.logger.Debug("record created",
		slog.String("name", name),
		slog.String("type", string(rtype)),
		slog.String("content", value),
	)
	return nil
}

// clear deletes the record set for (name, rtype). Safe when the record
// does not exist: the capability contract makes that a no-op.
func (r *Reconciler) clear(ctx context.Context, name string, rtype provider.RecordType) error {
	if err := r.provider.Delete(ctx, name, rtype); err != nil {
		return err
	}
	metrics.RecordMutation(r.provider.Name(), "delete", string(rtype))
	r.logger.Debug("record cleared",
		slog.String("name", name),
		slog.String("type", string(rtype)),
	)
	return nil
}

// addMember adds value to the multi-value record set for (name, rtype)
// without ever duplicating an entry. Creates the record when absent.
func (r *Reconciler) addMember(ctx context.Context, name string, rtype provider.RecordType, value string) error {
	existing, err := r.provider.List(ctx, name, rtype)
	if err != nil {
		return fmt.Errorf("listing %s %s: %w", rtype, name, err)
	}

	if slices.Contains(existing, value) {
		r.logger.Debug("member already present",
			slog.String("name", name),
			slog.String("type", string(rtype)),
			slog.String("member", value),
		)
		return nil
	}

	if len(existing) == 0 {
		if err := r.provider.Create(ctx, name, rtype, value, r.ttl); err != nil {
			return err
		}
		metrics.RecordMutation(r.provider.Name(), "create", string(rtype))
	} else {
		members := append(slices.Clone(existing), value)
		if err := r.provider.Update(ctx, name, rtype, members, r.ttl); err != nil {
			return err
		}
		metrics.RecordMutation(r.provider.Name(), "update", string(rtype))
	}

	r.logger.Debug("member added",
		slog.String("name", name),
		slog.String("type", string(rtype)),
		slog.String("member", value),
	)
	return nil
}

// removeMember removes value from the multi-value record set for
// (name, rtype). Deletes the whole record when the last member goes,
// rather than leaving an empty record. No-op when value is not a member.
func (r *Reconciler) removeMember(ctx context.Context, name string, rtype provider.RecordType, value string) error {
	existing, err := r.provider.List(ctx, name, rtype)
	if err != nil {
		return fmt.Errorf("listing %s %s: %w", rtype, name, err)
	}

	if !slices.Contains(existing, value) {
		r.logger.Debug("member not present",
			slog.String("name", name),
			slog.String("type", string(rtype)),
			slog.String("member", value),
		)
		return nil
	}

	remainder := slices.DeleteFunc(slices.Clone(existing), func(s string) bool {
		return s == value
	})

	if len(remainder) == 0 {
		if err := r.provider.Delete(ctx, name, rtype); err != nil {
			return err
		}
		metrics.RecordMutation(r.provider.Name(), "delete", string(rtype))
	} else {
		if err := r.provider.Update(ctx, name, rtype, remainder, r.ttl); err != nil {
			return err
		}
		metrics.RecordMutation(r.provider.Name(), "update", string(rtype))
	}

	r.logger.Debug("member removed",
		slog.String("name", name),
		slog.String("type", string(rtype)),
		slog.String("member", value),
	)
	return nil
}
