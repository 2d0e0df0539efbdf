package gen

// resolveReferences resolves every foreign-key stub and many-to-many
// target against the complete table set. It runs only after every
// table has finished structural resolution, so declaration order
// across plugins and within a table never affects the outcome.
//
// Many-to-many links resolve first because they synthesize the join
// columns other foreign keys may point at.
func resolveReferences(tables []*Table, cat *Catalog) error {
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	for _, t := range tables {
		if t.ManyToMany == nil {
			continue
		}
		if err := resolveManyToMany(byName, t); err != nil {
			return err
		}
	}

	// Composite types carry foreign keys of their own; resolving them
	// here gives generated mixin fields concrete types.
	for _, td := range cat.Types() {
		for _, col := range td.Columns {
			if col.ForeignKey == nil {
				continue
			}
			if err := resolveForeignKey(byName, td.Name, col, nil); err != nil {
				return err
			}
		}
	}

	for _, t := range tables {
		for _, col := range t.Columns {
			if col.ForeignKey == nil {
				continue
			}
			if err := resolveForeignKey(byName, t.Name, col, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveForeignKey fills the stub and copies the target column's
// resolved type onto the referencing column. Chains of foreign keys
// resolve recursively; stack holds owner.column refs on the current
// walk to reject cycles.
func resolveForeignKey(byName map[string]*Table, owner string, col *Column, stack []string) error {
	fk := col.ForeignKey
	if fk.Resolved() && col.Type != nil {
		return nil
	}
	ref := owner + "." + col.Name
	for _, s := range stack {
		if s == ref {
			return NewInvalidForeignReferenceError(owner, col.Name, fk.Ref(), "circular foreign key chain")
		}
	}
	target, ok := byName[fk.Table]
	if !ok {
		return NewUnknownForeignTableError(owner, col.Name, fk.Table)
	}
	tcol, ok := target.Column(fk.Column)
	if !ok {
		return NewInvalidForeignReferenceError(owner, col.Name, fk.Ref(), "no such column on target table")
	}
	if tcol.Type == nil && tcol.ForeignKey != nil {
		if err := resolveForeignKey(byName, target.Name, tcol, append(stack, ref)); err != nil {
			return err
		}
	}
	if tcol.Type == nil {
		return NewInvalidForeignReferenceError(owner, col.Name, fk.Ref(), "target column has no resolvable type")
	}
	fk.Target = target
	fk.TargetColumn = tcol
	col.Type = tcol.Type
	return nil
}

// resolveManyToMany resolves both targets and synthesizes the join
// table's composite-primary-key columns, one per target, named
// tag_column and typed like the target column.
func resolveManyToMany(byName map[string]*Table, t *Table) error {
	joins := make([]*Column, 0, 2)
	for _, tgt := range t.ManyToMany.Targets {
		target, ok := byName[tgt.Table]
		if !ok {
			return NewInvalidManyToManyError(t.Name, tgt.Ref(), "unknown target table")
		}
		tcol, ok := target.Column(tgt.Column)
		if !ok {
			return NewInvalidManyToManyError(t.Name, tgt.Ref(), "no such column on target table")
		}
		if tcol.Type == nil && tcol.ForeignKey != nil {
			if err := resolveForeignKey(byName, target.Name, tcol, nil); err != nil {
				return err
			}
		}
		if tcol.Type == nil {
			return NewInvalidManyToManyError(t.Name, tgt.Ref(), "target column has no resolvable type")
		}
		tgt.Target = target
		tgt.TargetColumn = tcol

		join := newColumn(tgt.Tag+"_"+tgt.Column, firstPlugin(t.Plugins), tgt.Ref())
		join.Type = tcol.Type
		join.ForeignKey = &ForeignKey{
			Table:        tgt.Table,
			Column:       tgt.Column,
			Target:       target,
			TargetColumn: tcol,
		}
		join.Constraints["primary_key"] = true
		join.ManyToManyTag = tgt.Tag
		joins = append(joins, join)
	}
	if joins[0].Name == joins[1].Name {
		return NewInvalidManyToManyError(t.Name, joins[0].Name, "both targets derive the same join column")
	}
	for _, col := range t.Columns {
		for _, join := range joins {
			if col.Name == join.Name {
				return NewDuplicateColumnError(t.Name, col.Name, firstPlugin(t.Plugins))
			}
		}
	}
	t.Columns = append(joins, t.Columns...)
	return nil
}
