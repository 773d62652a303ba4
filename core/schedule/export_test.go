package schedule

// HoldLineageForTest grabs the lineage lock so tests can exercise the wait
// budget. The returned func releases it.
func (m *VersionManager) HoldLineageForTest() func() {
	m.lineage <- struct{}{}
	return func() { <-m.lineage }
}
