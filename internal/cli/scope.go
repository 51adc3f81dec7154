package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	appstate "refero-cli/internal/app"
	"refero-cli/internal/model"
)

// scopeFlags are the library/collection selectors shared by the item and
// collection commands. Empty values fall back to the persisted session
// scope.
type scopeFlags struct {
	libraryID  int64
	collection string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	f.registerLibrary(cmd)
	cmd.Flags().StringVar(&f.collection, "collection", "", "Collection key, or duplicates|uncategorized|trash (default: the last used collection)")
}

func (f *scopeFlags) registerLibrary(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.libraryID, "library", 0, "Library id (default: the last used library)")
}

// applyLibraryOnly selects the requested library (or keeps/derives the
// session default) without touching the collection scope.
func (f *scopeFlags) applyLibraryOnly(cmd *cobra.Command, st *appstate.Store) error {
	ctx := cmd.Context()
	snap := st.Snapshot()

	switch {
	case f.libraryID != 0:
		var found *model.Library
		for i := range snap.Libraries {
			if snap.Libraries[i].ID == f.libraryID {
				found = &snap.Libraries[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("no library with id %d", f.libraryID)
		}
		if err := st.SelectLibrary(ctx, *found); err != nil {
			return err
		}
	case snap.SelectedLibrary == nil:
		if len(snap.Libraries) == 0 {
			return fmt.Errorf("no libraries available")
		}
		if err := st.SelectLibrary(ctx, snap.Libraries[0]); err != nil {
			return err
		}
	}
	return nil
}

// apply selects the requested library and collection on the store,
// re-loading items for the new scope.
func (f *scopeFlags) apply(cmd *cobra.Command, st *appstate.Store) error {
	ctx := cmd.Context()
	if err := f.applyLibraryOnly(cmd, st); err != nil {
		return err
	}

	if f.collection != "" {
		ref := model.ParseCollectionRef(f.collection)
		if ref.Key() != "" && !hasCollection(st.Snapshot().Collections, ref.Key()) {
			return fmt.Errorf("no collection with key %s", ref.Key())
		}
		return st.SelectCollection(ctx, ref)
	}
	if st.Snapshot().SelectedCollection.IsZero() {
		return fmt.Errorf("no collection selected; pass --collection")
	}
	return nil
}

func hasCollection(cols []model.Collection, key string) bool {
	for _, c := range cols {
		if c.Key == key {
			return true
		}
	}
	return false
}

func findCollection(cols []model.Collection, key string) (model.Collection, bool) {
	for _, c := range cols {
		if c.Key == key {
			return c, true
		}
	}
	return model.Collection{}, false
}
