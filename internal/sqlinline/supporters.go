package sqlinline

const QInsertSupporterEntry = `--sql 610c2031-2316-427a-9335-9c815613fe4e
insert into supporters_public(creator_id, payment_id, supporter_name, amount, type, is_anonymous, last_supported_at)
values ($1::bigint, $2::bigint, $3::text, $4::numeric, $5::text, $6::boolean, $7::timestamptz)
returning id;
`

const QListSupporters = `--sql 495fd9df-c74f-45a8-8332-f9880567a5b4
select id, creator_id, supporter_name, amount::text, type, is_anonymous, last_supported_at
from supporters_public
where creator_id = $1::bigint
order by last_supported_at desc, id desc
limit $2::int;
`

const QCreatorAnalytics = `--sql a3fa61dd-6e80-4d28-92b9-18845ff50b12
select
  coalesce((select sum(amount) from payments where creator_id = $1::bigint and status = 'success'), 0)::text,
  coalesce((select sum(amount) from subscriptions where creator_id = $1::bigint and status = 'active'), 0)::text,
  (select count(*) from payments where creator_id = $1::bigint),
  (select count(*) from payments where creator_id = $1::bigint and status = 'success'),
  (select count(*) from subscriptions where creator_id = $1::bigint and status = 'active');
`
