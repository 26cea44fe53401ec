package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

var configKey = []byte("_c.multisig")

// OwnerBucket holds a record for every member of the owner set.
type OwnerBucket struct {
	orm.ModelBucket
}

// NewOwnerBucket returns a bucket keyed by owner address.
func NewOwnerBucket() OwnerBucket {
	return OwnerBucket{
		ModelBucket: orm.NewModelBucket("owner"),
	}
}

// Registry maintains the owner set together with the quorum configuration.
// Every mutation validates
//
//	1 <= threshold <= owner count
//
// against the stored state. Only the execution of a governance proposal
// and genesis mutate the registry.
type Registry struct {
	owners OwnerBucket
}

// NewRegistry returns a registry operating on the owner bucket.
func NewRegistry() Registry {
	return Registry{owners: NewOwnerBucket()}
}

// Config returns the quorum configuration. It fails with ErrNotFound
// before the registry was initialized.
func (r Registry) Config(db quorum.ReadOnlyKVStore) (*Config, error) {
	raw, err := db.Get(configKey)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get config")
	}
	if raw == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "multisig not initialized")
	}
	var c Config
	if err := c.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(errors.ErrSchema, "cannot unmarshal config: %s", err)
	}
	return &c, nil
}

func (r Registry) saveConfig(db quorum.KVStore, c *Config) error {
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "config")
	}
	raw, err := c.Marshal()
	if err != nil {
		return errors.Wrapf(errors.ErrSchema, "cannot marshal config: %s", err)
	}
	return db.Set(configKey, raw)
}

// Initialize stores the initial owner set and configuration. It can be
// called only once.
func (r Registry) Initialize(db quorum.KVStore, owners []quorum.Address, threshold uint32, ticker string, treasury quorum.Address) error {
	switch _, err := r.Config(db); {
	case err == nil:
		return errors.Wrap(errors.ErrState, "multisig already initialized")
	case !errors.ErrNotFound.Is(err):
		return err
	}
	if len(owners) == 0 {
		return errors.Wrap(errors.ErrEmpty, "owners")
	}
	if len(owners) > MaxOwners {
		return errors.Wrapf(errors.ErrInput, "more than %d owners", MaxOwners)
	}
	seen := make(map[string]struct{}, len(owners))
	for _, o := range owners {
		if err := o.Validate(); err != nil {
			return errors.Wrap(err, "owner")
		}
		if _, ok := seen[string(o)]; ok {
			return errors.Wrapf(ErrOwnerExists, "duplicated owner %s", o)
		}
		seen[string(o)] = struct{}{}
	}
	if err := checkThreshold(threshold, uint32(len(owners))); err != nil {
		return err
	}

	for _, o := range owners {
		if _, err := r.owners.Put(db, o, &Owner{Address: o}); err != nil {
			return errors.Wrapf(err, "owner %s", o)
		}
	}
	return r.saveConfig(db, &Config{
		Threshold:    threshold,
		OwnerCount:   uint32(len(owners)),
		NativeTicker: ticker,
		Treasury:     treasury,
	})
}

// IsMember returns true if addr belongs to the owner set.
func (r Registry) IsMember(db quorum.ReadOnlyKVStore, addr quorum.Address) (bool, error) {
	return r.owners.Has(db, addr)
}

// Count returns the size of the owner set.
func (r Registry) Count(db quorum.ReadOnlyKVStore) (uint32, error) {
	c, err := r.Config(db)
	if err != nil {
		return 0, err
	}
	return c.OwnerCount, nil
}

// Owners returns all members ordered by address.
func (r Registry) Owners(db quorum.ReadOnlyKVStore) ([]quorum.Address, error) {
	keys, err := r.owners.Keys(db, nil)
	if err != nil {
		return nil, err
	}
	owners := make([]quorum.Address, len(keys))
	for i, k := range keys {
		owners[i] = quorum.Address(k)
	}
	return owners, nil
}

// CanAdd returns an error if addr cannot join the owner set.
func (r Registry) CanAdd(db quorum.ReadOnlyKVStore, addr quorum.Address) error {
	c, err := r.Config(db)
	if err != nil {
		return err
	}
	return r.canAdd(db, c, addr)
}

func (r Registry) canAdd(db quorum.ReadOnlyKVStore, c *Config, addr quorum.Address) error {
	switch ok, err := r.IsMember(db, addr); {
	case err != nil:
		return err
	case ok:
		return errors.Wrapf(ErrOwnerExists, "%s", addr)
	}
	if c.OwnerCount >= MaxOwners {
		return errors.Wrapf(errors.ErrInput, "owner set limited to %d", MaxOwners)
	}
	return nil
}

// CanRemove returns an error if removing addr would leave the registry
// in an invalid state.
func (r Registry) CanRemove(db quorum.ReadOnlyKVStore, addr quorum.Address) error {
	c, err := r.Config(db)
	if err != nil {
		return err
	}
	return r.canRemove(db, c, addr)
}

func (r Registry) canRemove(db quorum.ReadOnlyKVStore, c *Config, addr quorum.Address) error {
	switch ok, err := r.IsMember(db, addr); {
	case err != nil:
		return err
	case !ok:
		return errors.Wrapf(ErrOwnerNotFound, "%s", addr)
	}
	if c.OwnerCount <= 1 {
		return ErrLastOwner
	}
	if c.OwnerCount-1 < c.Threshold {
		return errors.Wrapf(ErrUnreachableThreshold, "%d owners left, threshold %d", c.OwnerCount-1, c.Threshold)
	}
	return nil
}

// CanSetThreshold returns an error if threshold is not reachable by the
// current owner set.
func (r Registry) CanSetThreshold(db quorum.ReadOnlyKVStore, threshold uint32) error {
	c, err := r.Config(db)
	if err != nil {
		return err
	}
	return checkThreshold(threshold, c.OwnerCount)
}

// Add inserts addr into the owner set.
func (r Registry) Add(db quorum.KVStore, addr quorum.Address) error {
	c, err := r.Config(db)
	if err != nil {
		return err
	}
	if err := r.canAdd(db, c, addr); err != nil {
		return err
	}
	if _, err := r.owners.Put(db, addr, &Owner{Address: addr}); err != nil {
		return err
	}
	c.OwnerCount++
	return r.saveConfig(db, c)
}

// Remove deletes addr from the owner set. The last owner cannot be removed
// and the remaining owners must still be able to reach the threshold.
func (r Registry) Remove(db quorum.KVStore, addr quorum.Address) error {
	c, err := r.Config(db)
	if err != nil {
		return err
	}
	if err := r.canRemove(db, c, addr); err != nil {
		return err
	}
	if err := r.owners.Delete(db, addr); err != nil {
		return err
	}
	c.OwnerCount--
	return r.saveConfig(db, c)
}

// SetThreshold changes the number of approvals required to execute.
func (r Registry) SetThreshold(db quorum.KVStore, threshold uint32) error {
	c, err := r.Config(db)
	if err != nil {
		return err
	}
	if err := checkThreshold(threshold, c.OwnerCount); err != nil {
		return err
	}
	c.Threshold = threshold
	return r.saveConfig(db, c)
}
