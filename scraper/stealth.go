package scraper

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// profileJS pins the fingerprint values the target's bot detection reads.
// It runs after stealth.JS so these values win where both touch a
// property.
const profileJS = `(() => {
	const define = (obj, prop, value) => {
		try {
			Object.defineProperty(obj, prop, { get: () => value, configurable: true });
		} catch (e) {}
	};

	define(Navigator.prototype, 'webdriver', undefined);

	if (!window.chrome) {
		window.chrome = {};
	}
	if (!window.chrome.runtime) {
		window.chrome.runtime = {};
	}

	if (!navigator.plugins || navigator.plugins.length === 0) {
		define(navigator, 'plugins', [1, 2, 3, 4, 5]);
	}
	define(navigator, 'languages', ['en-US', 'en']);
	define(navigator, 'platform', 'Win32');
	define(navigator, 'hardwareConcurrency', 8);
	define(navigator, 'deviceMemory', 8);

	if (window.navigator.permissions && window.navigator.permissions.query) {
		const originalQuery = window.navigator.permissions.query.bind(window.navigator.permissions);
		window.navigator.permissions.query = (parameters) =>
			parameters && parameters.name === 'notifications'
				? Promise.resolve({ state: 'denied', onchange: null })
				: originalQuery(parameters);
	}
})();`

// stealthScripts returns the scripts installed on every rendered page, in
// installation order.
func stealthScripts() []string {
	return []string{stealth.JS, profileJS}
}

// installStealth registers the stealth scripts to run before any page
// script on every document the page loads. It must be called before the
// first navigation.
func installStealth(page *rod.Page) error {
	for i, js := range stealthScripts() {
		if _, err := page.EvalOnNewDocument(js); err != nil {
			return fmt.Errorf("stealth: install script %d: %w", i, err)
		}
	}
	return nil
}
