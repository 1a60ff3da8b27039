package stabilize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// StyleElementID is the id of the injected suppression stylesheet.
const StyleElementID = "docshot-stabilize"

// suppressionCSS zeroes durations instead of removing animations so that
// animated elements settle on their final frame rather than their first.
var suppressionCSS = strings.Join([]string{
	"*, *::before, *::after {",
	"  animation-duration: 0s !important;",
	"  animation-delay: 0s !important;",
	"  animation-iteration-count: 1 !important;",
	"  transition-duration: 0s !important;",
	"  transition-delay: 0s !important;",
	"  scroll-behavior: auto !important;",
	"  caret-color: transparent !important;",
	"}",
}, "\n")

// SuppressAnimationsExpression returns an expression that installs the
// suppression stylesheet once, settles Web Animations started from script
// and forces a layout pass.
func SuppressAnimationsExpression() string {
	css, _ := json.Marshal(suppressionCSS)
	return fmt.Sprintf(`(() => {
  if (!document.getElementById(%[1]q)) {
    const style = document.createElement('style');
    style.id = %[1]q;
    style.textContent = %[2]s;
    (document.head || document.documentElement).appendChild(style);
  }
  if (typeof document.getAnimations === 'function') {
    for (const a of document.getAnimations()) {
      try { a.finish(); } catch (e) { a.cancel(); }
    }
  }
  document.documentElement.getBoundingClientRect();
  return true;
})()`, StyleElementID, css)
}

// FontsReadyExpression resolves once the document's font set has loaded.
const FontsReadyExpression = `(document.fonts ? document.fonts.ready.then(() => document.fonts.status) : Promise.resolve('loaded'))`

// FreezeTimeScript returns an init script that pins every wall-clock read
// (new Date(), Date(), Date.now(), and Intl.DateTimeFormat format and
// formatToParts called without a date) to t. Dates constructed with explicit
// arguments are unaffected.
func FreezeTimeScript(t time.Time) string {
	return fmt.Sprintf(`(() => {
  const frozen = %d;
  const RealDate = Date;
  function FrozenDate(...args) {
    if (!new.target) {
      return new RealDate(frozen).toString();
    }
    return Reflect.construct(RealDate, args.length ? args : [frozen], new.target);
  }
  FrozenDate.prototype = RealDate.prototype;
  FrozenDate.prototype.constructor = FrozenDate;
  FrozenDate.now = () => frozen;
  FrozenDate.parse = RealDate.parse;
  FrozenDate.UTC = RealDate.UTC;
  Object.defineProperty(globalThis, 'Date', { value: FrozenDate, writable: true, configurable: true });

  // Intl reads the engine clock directly when no date is given.
  const dtf = Intl.DateTimeFormat.prototype;
  const format = Object.getOwnPropertyDescriptor(dtf, 'format');
  Object.defineProperty(dtf, 'format', {
    configurable: true,
    get() {
      const bound = format.get.call(this);
      return (date) => bound(date === undefined ? frozen : date);
    },
  });
  const formatToParts = dtf.formatToParts;
  Object.defineProperty(dtf, 'formatToParts', {
    configurable: true,
    writable: true,
    value: function (date) { return formatToParts.call(this, date === undefined ? frozen : date); },
  });
})();`, t.UnixMilli())
}
