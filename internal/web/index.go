package web

// Single page dashboard: login, profile controls, price chart with overlay and the profile histogram.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Volume Profile</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
  <link href="https://fonts.googleapis.com/css2?family=Press+Start+2P&family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root { --bg:#ffffff; --ink:#111111; --panel:#f6f6f6; --va:#1b5fd6; --muted:rgba(128,128,128,.35); }
    * { box-sizing:border-box; }
    body { margin:0; padding:2rem; background:var(--bg); color:var(--ink); font-family:'Space Mono',monospace; }
    #app { max-width:1400px; margin:0 auto; background:var(--panel); border:3px solid var(--ink); padding:2rem;
           box-shadow:12px 12px 0 rgba(0,0,0,.15); }
    .eyebrow { font-family:'Press Start 2P',monospace; font-size:.6rem; letter-spacing:.2em; text-transform:uppercase; }
    form { display:flex; flex-wrap:wrap; gap:.8rem; align-items:flex-end; margin:1rem 0; }
    label { display:flex; flex-direction:column; font-size:.7rem; gap:.2rem; }
    input, select, button { font-family:inherit; border:2px solid var(--ink); padding:.35rem .5rem; background:#fff; }
    button { cursor:pointer; box-shadow:3px 3px 0 rgba(0,0,0,.15); }
    .charts { display:grid; grid-template-columns:1fr 320px; gap:1.5rem; }
    canvas { background:#fff; border:2px solid var(--ink); }
    .stats { display:grid; grid-template-columns:repeat(auto-fit,minmax(160px,1fr)); gap:.8rem; margin:1rem 0; }
    .stat { border:2px solid var(--ink); background:#fff; padding:.6rem; font-size:.75rem; }
    .stat b { display:block; font-size:1rem; }
    .error { color:#d7263d; min-height:1.2rem; }
    .hidden { display:none; }
    table { border-collapse:collapse; font-size:.7rem; background:#fff; }
    td, th { border:1px solid var(--ink); padding:.2rem .5rem; }
  </style>
</head>
<body>
<div id="app">
  <p class="eyebrow">volume profile</p>

  <section id="login">
    <form id="loginForm">
      <label>User <input name="username" required></label>
      <label>Password <input name="password" type="password" required></label>
      <button type="submit">Log in</button>
    </form>
  </section>

  <section id="main" class="hidden">
    <form id="queryForm">
      <label>Symbol <input name="symbol" placeholder="EURUSD"></label>
      <label>Interval
        <select name="interval">
          <option>1m</option><option>5m</option><option>15m</option><option selected>1h</option>
          <option>4h</option><option>1d</option><option>1wk</option><option>1mo</option>
        </select>
      </label>
      <label>Days <input name="days" type="number" min="1" max="365" value="10"></label>
      <label>Binning
        <select name="mode"><option value="fixed_count">fixed count</option><option value="fixed_step">fixed step</option></select>
      </label>
      <label>Bins <input name="bins" type="number" min="1" max="1000" value="59"></label>
      <label>Resolution <input name="resolution" type="number" min="1" max="5000" value="500"></label>
      <label>Value area <input name="value_area" value="0.68"></label>
      <label>MA
        <select name="ma_type"><option value="none">none</option><option>sma</option><option>ema</option><option>wma</option></select>
      </label>
      <label>Source
        <select name="ma_source"><option>close</option><option>open</option><option>high</option><option>low</option></select>
      </label>
      <label>Period <input name="ma_period" type="number" min="1" max="100" value="20"></label>
      <label>Offset <input name="ma_offset" type="number" min="-50" max="50" value="0"></label>
      <button type="submit">Compute</button>
      <button type="button" id="logout">Log out</button>
    </form>
    <div id="error" class="error"></div>
    <div class="stats" id="stats"></div>
    <div class="charts">
      <canvas id="priceChart" height="420"></canvas>
      <canvas id="profileChart" height="420"></canvas>
    </div>

    <h4 class="eyebrow">annotations</h4>
    <form id="annotationForm">
      <label>x1 <input name="x1" type="number" step="any" required></label>
      <label>y1 <input name="y1" type="number" step="any" required></label>
      <label>x2 <input name="x2" type="number" step="any" required></label>
      <label>y2 <input name="y2" type="number" step="any" required></label>
      <label>Color <input name="color" type="color" value="#0000ff"></label>
      <label>Width <input name="width" type="number" min="1" max="10" value="3"></label>
      <button type="submit">Add</button>
      <label>Upload JSON <input id="upload" type="file" accept="application/json"></label>
      <a href="/api/annotations/export?format=json">Export JSON</a>
      <a href="/api/annotations/export?format=csv">Export CSV</a>
    </form>
    <table id="annotations"><thead><tr><th>x1</th><th>y1</th><th>x2</th><th>y2</th><th>color</th><th>width</th></tr></thead><tbody></tbody></table>
  </section>
</div>
<script>
const $ = (id) => document.getElementById(id);
let priceChart, profileChart, stream;

Chart.defaults.font.family = "'Space Mono', monospace";
Chart.defaults.font.size = 11;
Chart.defaults.color = '#111111';

const api = async (path, opts) => {
  const res = await fetch(path, Object.assign({ credentials:'same-origin' }, opts || {}));
  if(res.status === 401){ showLogin(); throw new Error('login required'); }
  const body = res.status === 204 ? null : await res.json();
  if(!res.ok){ throw new Error(body && body.error ? body.error : res.statusText); }
  return body;
};

const showLogin = () => { $('login').classList.remove('hidden'); $('main').classList.add('hidden'); if(stream){ stream.close(); } };
const showMain = () => { $('login').classList.add('hidden'); $('main').classList.remove('hidden'); loadAnnotations(); watchAnnotations(); };

$('loginForm').addEventListener('submit', async (e) => {
  e.preventDefault();
  const f = new FormData(e.target);
  try {
    await api('/api/login', { method:'POST', body:JSON.stringify({ username:f.get('username'), password:f.get('password') }) });
    showMain();
  } catch(err) { $('error').textContent = err.message; }
});

$('logout').addEventListener('click', async () => { try { await api('/api/logout', { method:'POST' }); } finally { showLogin(); } });

$('queryForm').addEventListener('submit', async (e) => {
  e.preventDefault();
  const params = new URLSearchParams();
  for(const [k, v] of new FormData(e.target).entries()){ if(v !== ''){ params.set(k, v); } }
  $('error').textContent = '';
  try { render(await api('/api/profile?' + params.toString())); }
  catch(err){ $('error').textContent = err.message; }
});

const fmt = (v) => Number(v).toPrecision(6);

const render = (p) => {
  const lm = p.landmarks;
  $('stats').innerHTML = [
    ['POC', lm.poc_price], ['VA low', lm.value_area_low], ['VA high', lm.value_area_high],
    ['Support', lm.support_price], ['Resistance', lm.resistance_price], ['Dropped candles', p.dropped_candles]
  ].map(([k, v]) => '<div class="stat">' + k + '<b>' + fmt(v) + '</b></div>').join('');

  const labels = p.candles.map(c => new Date(c.t).toISOString().slice(0, 16).replace('T', ' '));
  const flat = (v) => p.candles.map(() => v);
  const datasets = [
    { label:'close', data:p.candles.map(c => c.c), borderColor:'#111111', pointRadius:0, borderWidth:1 },
    { label:'POC', data:flat(lm.poc_price), borderColor:'#d7263d', borderDash:[6, 4], pointRadius:0 },
    { label:'VA low', data:flat(lm.value_area_low), borderColor:'#1b5fd6', borderDash:[2, 3], pointRadius:0 },
    { label:'VA high', data:flat(lm.value_area_high), borderColor:'#1b5fd6', borderDash:[2, 3], pointRadius:0 }
  ];
  if(p.moving_average){
    const ma = p.moving_average;
    datasets.push({ label:ma.type.toUpperCase() + ' (' + ma.period + ')', data:ma.values, borderColor:'#ff9900', pointRadius:0, spanGaps:false });
  }
  if(priceChart){ priceChart.destroy(); }
  priceChart = new Chart($('priceChart'), { type:'line', data:{ labels, datasets }, options:{ animation:false, interaction:{ intersect:false, mode:'index' } } });

  if(profileChart){ profileChart.destroy(); }
  profileChart = new Chart($('profileChart'), {
    type:'bar',
    data:{
      labels:p.midpoints.map(fmt),
      datasets:[{ label:'volume', data:p.volumes, backgroundColor:p.in_value_area.map(v => v ? '#1b5fd6' : 'rgba(128,128,128,.35)') }]
    },
    options:{ indexAxis:'y', animation:false, scales:{ y:{ reverse:true } }, plugins:{ legend:{ display:false } } }
  });
};

const addAnnotationRow = (a) => {
  const tr = document.createElement('tr');
  tr.innerHTML = [a.x1, a.y1, a.x2, a.y2, a.color, a.width].map(v => '<td>' + v + '</td>').join('');
  $('annotations').querySelector('tbody').appendChild(tr);
};

const loadAnnotations = async () => {
  $('annotations').querySelector('tbody').innerHTML = '';
};

const watchAnnotations = () => {
  if(stream){ stream.close(); }
  stream = new EventSource('/api/annotations/stream');
  stream.addEventListener('annotation', (ev) => addAnnotationRow(JSON.parse(ev.data)));
};

$('annotationForm').addEventListener('submit', async (e) => {
  e.preventDefault();
  const f = new FormData(e.target);
  const body = { x1:+f.get('x1'), y1:+f.get('y1'), x2:+f.get('x2'), y2:+f.get('y2'), color:f.get('color'), width:+f.get('width') };
  try { await api('/api/annotations', { method:'POST', body:JSON.stringify(body) }); }
  catch(err){ $('error').textContent = err.message; }
});

$('upload').addEventListener('change', async (e) => {
  const file = e.target.files[0];
  if(!file){ return; }
  try { await api('/api/annotations', { method:'POST', body:await file.text() }); }
  catch(err){ $('error').textContent = err.message; }
});

api('/api/annotations').then(showMain).catch(() => {});
</script>
</body>
</html>
`
