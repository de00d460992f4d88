package elements

// FilterConfig holds the noise and denylist data used by both normalizers.
// The lists are tuned empirically for the two UI frameworks and are data,
// not logic: config may override them.
type FilterConfig struct {
	// NoiseClasses are Android layout/container classes skipped unless they
	// carry content or interactivity.
	NoiseClasses map[string]bool
	// SystemResourceIDs are Android resource ids always skipped.
	SystemResourceIDs map[string]bool
	// NoiseRoles are the Apple accessibility equivalents of NoiseClasses.
	NoiseRoles map[string]bool
}

// DefaultFilterConfig returns the built-in noise lists.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		NoiseClasses: toSet([]string{
			"android.view.View",
			"android.view.ViewGroup",
			"android.widget.FrameLayout",
			"android.widget.LinearLayout",
			"android.widget.RelativeLayout",
			"androidx.compose.ui.platform.ComposeView",
			"android.widget.ScrollView",
			"android.widget.HorizontalScrollView",
			"androidx.recyclerview.widget.RecyclerView",
			"androidx.viewpager2.widget.ViewPager2",
			"androidx.constraintlayout.widget.ConstraintLayout",
			"androidx.coordinatorlayout.widget.CoordinatorLayout",
			"androidx.appcompat.widget.ActionBarOverlayLayout",
			"androidx.appcompat.widget.ContentFrameLayout",
			"androidx.appcompat.widget.FitWindowsLinearLayout",
			"android.widget.ContentFrameLayout",
		}),
		SystemResourceIDs: toSet([]string{
			"android:id/statusBarBackground",
			"android:id/navigationBarBackground",
			"android:id/content",
			"android:id/action_bar_container",
		}),
		NoiseRoles: toSet([]string{
			"AXWindow", "AXGroup", "AXScrollArea", "AXLayoutArea",
			"AXSplitGroup", "AXList", "AXTable", "AXOutline",
			"AXRow", "AXColumn", "AXCell",
		}),
	}
}

// WithOverrides returns a copy with any non-empty override lists applied.
func (c FilterConfig) WithOverrides(noiseClasses, systemIDs, noiseRoles []string) FilterConfig {
	out := c
	if len(noiseClasses) > 0 {
		out.NoiseClasses = toSet(noiseClasses)
	}
	if len(systemIDs) > 0 {
		out.SystemResourceIDs = toSet(systemIDs)
	}
	if len(noiseRoles) > 0 {
		out.NoiseRoles = toSet(noiseRoles)
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
