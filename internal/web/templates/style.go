package templates

const pageCSS = `
body{font-family:system-ui,sans-serif;margin:0;padding:1rem 2rem;}
body.theme-light{background:#fff;color:#1f2933;}
body.theme-dark{background:#121417;color:#e4e7eb;}
.toolbar{display:flex;gap:1rem;align-items:center;flex-wrap:wrap;}
.inline{display:inline-flex;gap:.25rem;align-items:center;}
.grid{border-collapse:collapse;width:100%;margin:1rem 0;}
.grid th,.grid td{border:1px solid #9aa5b1;padding:.35rem .5rem;text-align:left;}
.grid tr.pending{background:rgba(255,196,0,.15);}
.grid td.empty{text-align:center;font-style:italic;}
.alert{padding:.75rem 1rem;border-radius:4px;margin:1rem 0;}
.alert-error{background:#fde8e8;color:#9b1c1c;}
.alert-success{background:#def7ec;color:#03543f;}
.pagination{display:flex;gap:1rem;}
.row-form,.columns-form{display:flex;gap:.75rem;flex-wrap:wrap;align-items:end;}
a.button,button{cursor:pointer;}
`
