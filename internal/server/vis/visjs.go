package vis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/kgviz/svc-kg/pkg/graph"
)

// CSP allows inline script/style (the page embeds both), the unpkg CDN for
// vis-network, and remote images for member photos.
const ContentSecurityPolicy = "default-src 'self'; " +
	"style-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"script-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"img-src 'self' data: https: http:; " +
	"connect-src 'self';"

const (
	visNetworkJS  = "https://unpkg.com/vis-network@9.1.6/dist/vis-network.min.js"
	visNetworkCSS = "https://unpkg.com/vis-network@9.1.6/styles/vis-network.min.css"
)

// VisJSParams drives the interactive vis-network page.
type VisJSParams struct {
	Title string
	Theme string
	Debug bool

	// Source selects where the page gets its data: "server" embeds the graph
	// into the page, "client" makes the browser fetch the JSON endpoint with
	// the page's own query string.
	Source string

	// Graph is embedded when Source is "server".
	Graph graph.Graph
}

type visJSPage struct {
	Title      string
	Theme      string
	Background string
	Debug      bool
	Source     string
	Endpoint   string
	JSHref     string
	CSSHref    string
	DataJSON   template.JS
	Script     template.JS
}

// RenderVisJS produces the full HTML page.
func RenderVisJS(params VisJSParams) (string, error) {
	page := visJSPage{
		Title:    params.Title,
		Theme:    params.Theme,
		Debug:    params.Debug,
		Source:   params.Source,
		Endpoint: "/v1/graph/membros",
		JSHref:   visNetworkJS,
		CSSHref:  visNetworkCSS,
		Script:   template.JS(visJSScript),
	}

	page.Background = "#ffffff"
	if params.Theme == "dark" {
		page.Background = "#0b0f19"
	}

	if params.Source == "server" {
		// json.Marshal escapes <, > and & so the payload is safe inside a
		// script element.
		data, err := json.Marshal(params.Graph)
		if err != nil {
			return "", fmt.Errorf("failed to embed graph: %w", err)
		}
		page.DataJSON = template.JS(data)
	}

	var buf bytes.Buffer
	if err := visJSTemplate.Execute(&buf, page); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var visJSTemplate = template.Must(template.New("visjs").Parse(`<!doctype html>
<html lang="pt-br">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="{{.CSSHref}}">
    <meta name="theme-color" content="{{.Background}}">
    <style>
      html,body,#mynetwork { height:100%; margin:0; }
      .kg-toolbar { display:flex; gap:8px; align-items:center; padding:8px; border-bottom:1px solid #e0e0e0; }
      .kg-toolbar input[type="search"] { flex: 1; min-width: 220px; padding:6px 10px; border-radius:1px; outline:none; }
      .kg-toolbar button { padding:6px 10px; border:1px solid #e0e0e0; background:transparent; border-radius:1px; cursor:pointer; }
      .kg-toolbar button:hover { background: rgba(0,0,0,.04); }
    </style>
  </head>
  <body data-theme="{{.Theme}}">
    <div class="kg-toolbar">
      <h4 style="margin:0">{{.Title}}</h4>
      <input id="kg-search" type="search" placeholder="Buscar no gráfico" />
      <button id="btn-print" type="button" title="Imprimir">Imprimir</button>
      <button id="btn-reload" type="button" title="Recarregar">Recarregar</button>
    </div>
    <div id="mynetwork" style="height:90vh;width:100%;"
         data-endpoint="{{.Endpoint}}"
         data-source="{{.Source}}"
         data-debug="{{.Debug}}"></div>
    {{if .DataJSON}}<script id="__KG_DATA__" type="application/json">{{.DataJSON}}</script>{{end}}
    <script src="{{.JSHref}}"></script>
    <script>{{.Script}}</script>
  </body>
</html>
`))

// visJSScript is the client-side renderer: label cleanup mirroring
// graph.CleanLabel, CV/PCC faction coloring, degree-based sizing, search
// highlight and the toolbar buttons.
const visJSScript = `
(function(){
  const container = document.getElementById('mynetwork');
  const source = container.getAttribute('data-source') || 'server';
  const endpoint = container.getAttribute('data-endpoint') || '/v1/graph/membros';

  const COLOR_CV  = '#d32f2f';
  const COLOR_PCC = '#0d47a1';
  const COLOR_FUN = '#fdd835';
  const COLOR_DEF = '#607d8b';

  const EDGE_COLORS = {
    'PERTENCE_A':       '#9e9e9e',
    'EXERCE':           COLOR_FUN,
    'FUNCAO_DA_FACCAO': COLOR_FUN,
    'CO_FACCAO':        '#aa9424',
    'CO_FUNCAO':        '#546e7a'
  };

  function isPgTextArray(s) { s=(s||'').trim(); return s.length>=2 && s[0]=='{' && s[s.length-1]=='}'; }
  function cleanLabel(raw) {
    if(!raw) return '';
    const s=String(raw).trim();
    if(!isPgTextArray(s)) return s;
    const inner=s.slice(1,-1); if(!inner) return '';
    return inner.replace(/(^|,)\s*"?null"?\s*(?=,|$)/gi,'').replace(/"/g,'').split(',').map(x=>x.trim()).filter(Boolean).join(', ');
  }

  function inferFaccaoColors(rawNodes) {
    const map={};
    rawNodes.filter(n=>n && String(n.type||'').toLowerCase().includes('facc')).forEach(n=>{
      const name = cleanLabel(n.label||'').toUpperCase();
      const id = String(n.id);
      if (name.includes('PCC')) map[id] = COLOR_PCC;
      if (name.includes('CV'))  map[id] = COLOR_CV;
    });
    return map;
  }

  function colorForNode(n, faccaoColorById) {
    const gid = String(n.group ?? n.faccao_id ?? '');
    if (gid && faccaoColorById[gid]) return faccaoColorById[gid];

    const t = String(n.type||'').toLowerCase();
    const L = String(n.label||'').toUpperCase();

    if (t.includes('func')) return COLOR_FUN;
    if (t.includes('facc')) {
      if (L.includes('CV'))  return COLOR_CV;
      if (L.includes('PCC')) return COLOR_PCC;
    }
    if (L.includes('CV'))  return COLOR_CV;
    if (L.includes('PCC')) return COLOR_PCC;
    return COLOR_DEF;
  }

  function edgeStyleFor(rel) { return { color: EDGE_COLORS[rel] || '#b0bec5', width: 0.1 }; }

  function degreeMap(nodes,edges) {
    const d={}; nodes.forEach(n=>d[n.id]=0);
    edges.forEach(e=>{ if(e.from in d) d[e.from]++; if(e.to in d) d[e.to]++; });
    return d;
  }

  function colorObj(c, opacity){
    if (typeof c === 'object' && c) { return Object.assign({}, c, { opacity: opacity }); }
    return {
      background: c || COLOR_DEF,
      border: c || COLOR_DEF,
      highlight: { background: c || COLOR_DEF, border: c || COLOR_DEF },
      hover: { background: c || COLOR_DEF, border: c || COLOR_DEF },
      opacity: opacity
    };
  }

  function render(data){
    const rawNodes = data.nodes || [];
    const rawEdges = data.edges || [];

    const faccaoColorById = inferFaccaoColors(rawNodes);

    const labelById = {};
    rawNodes.forEach(n => { labelById[String(n.id)] = cleanLabel(n.label||''); });

    const nodes = [];
    const seen = new Set();
    for (const n of rawNodes) {
      if(!n || n.id==null) continue;
      const id = String(n.id);
      if (seen.has(id)) continue; seen.add(id);

      const label = cleanLabel(n.label) || id;
      const group = String(n.group ?? n.faccao_id ?? n.type ?? '0');
      const photo = n.photo_url && /^https?:\/\//i.test(n.photo_url) ? n.photo_url : null;

      const color = colorForNode({group, type:n.type, label}, faccaoColorById);

      const base = { id, label, group, color, borderWidth: 1 };
      if (photo) { base.shape='circularImage'; base.image=photo; } else { base.shape='dot'; }
      nodes.push(base);
    }

    const nodeIds = new Set(nodes.map(n=>n.id));

    const edges = [];
    for (const e of (rawEdges||[])) {
      if(!e) continue;
      const a = String(e.source ?? e.from);
      const b = String(e.target ?? e.to);
      if(!nodeIds.has(a) || !nodeIds.has(b)) continue;

      const rel = e.relation || '';
      const style = edgeStyleFor(rel);

      const la = String(labelById[a] || '').toUpperCase();
      const lb = String(labelById[b] || '').toUpperCase();

      let edgeColor = style.color;
      if (la.includes('CV') || lb.includes('CV')) edgeColor = COLOR_CV;
      else if (la.includes('PCC') || lb.includes('PCC')) edgeColor = COLOR_PCC;
      if (rel === 'EXERCE' || rel === 'FUNCAO_DA_FACCAO') edgeColor = COLOR_FUN;

      edges.push({ from:a, to:b, value: Number(e.weight||1), width: 0.1, color: edgeColor, title: rel });
    }

    if (!nodes.length) {
      container.innerHTML='<div style="padding:12px">Sem dados.</div>';
      return;
    }

    const deg = degreeMap(nodes, edges);
    nodes.forEach(n=>{ const d=deg[n.id]||0; n.value = 14 + Math.log(d+1)*10; });

    const dsNodes = new vis.DataSet(nodes);
    const dsEdges = new vis.DataSet(edges);

    const options = {
      interaction: { hover:true, dragNodes:true, dragView:true, zoomView:true, multiselect:true, navigationButtons:true },
      physics: { enabled: true, stabilization: { enabled:true, iterations: 300 } },
      nodes: { shape:'dot', borderWidth:2 },
      edges: { smooth:false, width:0.1, arrows: { to: { enabled: true, scaleFactor:0.5 } } }
    };

    const net = new vis.Network(container, { nodes: dsNodes, edges: dsEdges }, options);
    net.once('stabilizationIterationsDone', ()=>{ net.setOptions({ physics:false }); net.fit({ animation: { duration: 300 } }); });
    net.on('doubleClick', ()=> net.fit({ animation: { duration: 300 } }));

    const q = document.getElementById('kg-search');
    if (q) {
      function runSearch() {
        const t=(q.value||'').trim().toLowerCase(); if(!t) return;
        const all=dsNodes.get();
        const hits=all.filter(n => (n.label||'').toLowerCase().includes(t) || String(n.id)===t);
        if(!hits.length) return;
        all.forEach(n => dsNodes.update({ id: n.id, color: colorObj(n.color, 0.25) }));
        hits.forEach(h => {
          const cur=dsNodes.get(h.id);
          dsNodes.update({ id: h.id, color: colorObj(cur.color, 1) });
        });
        net.setOptions({ physics: false });
        net.fit({ nodes: hits.map(h=>h.id), animation: { duration: 300 } });
      }
      q.addEventListener('change', runSearch);
      q.addEventListener('keyup', e=>{ if(e.key==='Enter') runSearch(); });
    }
    const p=document.getElementById('btn-print'); if(p) p.onclick=()=>window.print();
    const r=document.getElementById('btn-reload'); if(r) r.onclick=()=>location.reload();
  }

  function run(){
    if ((container.getAttribute('data-source')||'server') === 'server'){
      const tag=document.getElementById('__KG_DATA__'); if(!tag) { container.innerHTML='<div style="padding:12px">Dados não incorporados.</div>'; return; }
      try { render(JSON.parse(tag.textContent||'{}')); } catch(e){ container.innerHTML='<pre>'+String(e)+'</pre>'; }
    } else {
      const params=new URLSearchParams(window.location.search);
      const qs=new URLSearchParams();
      if(params.get('faccao_id')) qs.set('faccao_id', params.get('faccao_id'));
      qs.set('include_co', params.get('include_co') ?? 'true');
      qs.set('max_pairs',  params.get('max_pairs')  ?? '8000');
      qs.set('max_nodes',  params.get('max_nodes')  ?? '2000');
      qs.set('max_edges',  params.get('max_edges')  ?? '4000');
      qs.set('cache',      params.get('cache')      ?? 'true');
      const url=endpoint+'?'+qs.toString();
      fetch(url,{ headers:{ 'Accept':'application/json' } })
        .then(r=>r.json())
        .then(render)
        .catch(err=>{ container.innerHTML='<pre>'+String(err)+'</pre>'; });
    }
  }
  if(document.readyState!=='loading') run(); else document.addEventListener('DOMContentLoaded', run);
})();
`
