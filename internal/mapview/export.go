package mapview

import (
	"fmt"
	"html/template"
	"io"

	geojson "github.com/paulmach/go.geojson"

	"github.com/julianstephens/emomap/internal/constants"
)

// GeoJSON encodes markers as a FeatureCollection of points. GeoJSON orders
// positions as [lon, lat].
func GeoJSON(markers []Marker) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewPointFeature([]float64{m.Coordinates.Lon(), m.Coordinates.Lat()})
		f.SetProperty("location", m.Popup.Title)
		f.SetProperty("emotionId", m.EmotionID)
		f.SetProperty("color", m.Color)
		f.SetProperty("icon", m.Icon)
		f.SetProperty("size", m.Size)
		f.SetProperty("details", m.Popup.Lines)
		fc.AddFeature(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode geojson: %w", err)
	}
	return data, nil
}

// Page is the data behind the Leaflet HTML page.
type Page struct {
	Title      string
	Mode       constants.ViewMode
	Stats      Stats
	Viewport   Viewport
	Aggregate  []Marker
	Individual []Marker
	Legends    map[constants.ViewMode]Legend
	// Fit holds the corners to frame, or nil to keep the default view.
	Fit [][2]float64
	// APIBase, when set, makes the page refetch markers from a running server.
	APIBase string
}

// Page snapshots the controller for rendering.
func (c *Controller) Page() Page {
	var fit [][2]float64
	vp := c.Viewport()
	if vp.Bounds != nil {
		fit = vp.Bounds.Corners()
	}
	return Page{
		Fit:        fit,
		Title:      "Emotion Map",
		Mode:       c.mode,
		Stats:      c.Stats(),
		Viewport:   vp,
		Aggregate:  c.AggregateMarkers(),
		Individual: c.IndividualMarkers(),
		Legends: map[constants.ViewMode]Legend{
			constants.ViewAggregate:  LegendFor(constants.ViewAggregate),
			constants.ViewIndividual: LegendFor(constants.ViewIndividual),
		},
	}
}

var pageTemplate = template.Must(template.New("map").Parse(pageHTML))

// RenderHTML writes a standalone Leaflet page. Map tiles and the Leaflet
// assets are loaded from public CDNs by the browser.
func RenderHTML(w io.Writer, p Page) error {
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("failed to render map page: %w", err)
	}
	return nil
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body { margin: 0; height: 100%; font-family: system-ui, sans-serif; }
  header { display: flex; align-items: center; justify-content: space-between; padding: 12px 16px; border-bottom: 1px solid #ddd; }
  header h1 { font-size: 20px; margin: 0; }
  header .stats { color: #555; font-size: 14px; margin-left: 16px; }
  #map { height: calc(100% - 58px); }
  .emotion-marker { border: 3px solid white; border-radius: 50%; display: flex; align-items: center; justify-content: center; box-shadow: 0 2px 8px rgba(0,0,0,0.3); }
  .legend { position: absolute; bottom: 16px; left: 16px; z-index: 1000; background: white; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.2); padding: 12px; max-width: 260px; font-size: 12px; }
  .legend .grid { display: grid; grid-template-columns: 1fr 1fr; gap: 6px; }
  .legend .dot { display: inline-block; width: 12px; height: 12px; border-radius: 50%; margin-right: 6px; vertical-align: middle; }
  .legend p { color: #777; margin: 8px 0 0; }
  button.active { font-weight: bold; }
</style>
</head>
<body>
<header>
  <div><h1 style="display:inline">{{.Title}}</h1>
  <span class="stats">{{.Stats.Submissions}} responses &middot; {{.Stats.Locations}} locations</span></div>
  <div>
    <button id="mode-aggregate">Aggregate</button>
    <button id="mode-individual">Individual</button>
  </div>
</header>
<div id="map"></div>
<div class="legend">
  <strong>Emotions Legend</strong>
  <div class="grid" id="legend-grid"></div>
  <p id="legend-caption"></p>
</div>
<script>
const markers = { aggregate: {{.Aggregate}}, individual: {{.Individual}} };
const legends = {{.Legends}};
const viewport = {{.Viewport}};
const fit = {{.Fit}};
const apiBase = {{.APIBase}};
let mode = {{.Mode}};

const map = L.map('map').setView(viewport.center, viewport.zoom);
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors'
}).addTo(map);
const layer = L.layerGroup().addTo(map);

function esc(s) {
  const d = document.createElement('div');
  d.textContent = s;
  return d.innerHTML;
}

function icon(m) {
  return L.divIcon({
    className: '',
    html: '<div class="emotion-marker" style="width:' + m.size + 'px;height:' + m.size + 'px;background:' + esc(m.color) + ';font-size:' + (m.size * 0.4) + 'px">' + esc(m.icon) + '</div>',
    iconSize: [m.size, m.size],
    iconAnchor: [m.size / 2, m.size / 2]
  });
}

function draw() {
  layer.clearLayers();
  (markers[mode] || []).forEach(function (m) {
    const body = '<strong>' + esc(m.popup.title) + '</strong><br>' + m.popup.lines.map(esc).join('<br>');
    L.marker(m.coordinates, { icon: icon(m) }).bindPopup(body).addTo(layer);
  });
  const legend = legends[mode];
  document.getElementById('legend-grid').innerHTML = legend.emotions.map(function (e) {
    return '<div><span class="dot" style="background:' + esc(e.color) + '"></span>' + esc(e.name) + '</div>';
  }).join('');
  document.getElementById('legend-caption').textContent = legend.caption;
  document.getElementById('mode-aggregate').className = mode === 'aggregate' ? 'active' : '';
  document.getElementById('mode-individual').className = mode === 'individual' ? 'active' : '';
}

function setMode(next) {
  mode = next;
  if (!apiBase) { draw(); return; }
  fetch(apiBase + '/api/markers?mode=' + encodeURIComponent(next))
    .then(function (r) { return r.json(); })
    .then(function (body) { markers[next] = body.markers; draw(); })
    .catch(draw);
}

document.getElementById('mode-aggregate').onclick = function () { setMode('aggregate'); };
document.getElementById('mode-individual').onclick = function () { setMode('individual'); };
if (fit) {
  map.fitBounds(fit, { maxZoom: 8, padding: [40, 40] });
}
draw();
</script>
</body>
</html>
`
